package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/notify"
	"github.com/ariebrainware/medlink/util"
	"gorm.io/gorm"
)

// PasswordResetTTL is how long a reset token stays redeemable.
const PasswordResetTTL = time.Hour

const minPasswordLen = 8

var errResetTokenSpent = errors.New("reset token spent")

// RequestPasswordReset issues a single-use reset token for the account
// registered under email and hands it to the notifier. An unknown email is
// not an error so callers cannot learn which addresses exist.
func (s *Scheduler) RequestPasswordReset(ctx context.Context, db *gorm.DB, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return NewValidationError("email is required")
	}
	db = db.WithContext(ctx)

	var user model.User
	err := db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return NewInternalError("failed to load user", err)
	}

	token, digest, err := util.GenerateResetToken()
	if err != nil {
		return NewInternalError("failed to generate reset token", err)
	}
	reset := model.PasswordReset{
		UserID:    user.ID,
		TokenHash: digest,
		ExpiresAt: time.Now().UTC().Add(PasswordResetTTL),
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		// A new request supersedes any link still sitting in the inbox.
		if err := tx.Where("user_id = ? AND used_at IS NULL", user.ID).Delete(&model.PasswordReset{}).Error; err != nil {
			return err
		}
		return tx.Create(&reset).Error
	})
	if err != nil {
		return NewInternalError("failed to store reset token", err)
	}

	ev := notify.NewEvent(notify.EventPasswordResetRequested)
	ev.UserID, ev.Email, ev.ResetToken = user.ID, user.Email, token
	s.dispatch(ctx, ev)
	return nil
}

// ResetPassword redeems token and sets the account's password. The token is
// claimed before the password changes, so of two concurrent redemptions only
// one succeeds. Lockout state is cleared. It returns the user id so the
// caller can revoke that user's sessions.
func (s *Scheduler) ResetPassword(ctx context.Context, db *gorm.DB, token, password string) (uint, error) {
	if strings.TrimSpace(token) == "" {
		return 0, NewValidationError("token is required")
	}
	if len(password) < minPasswordLen {
		return 0, NewValidationError("password must be at least %d characters", minPasswordLen)
	}
	salt, err := util.GenerateSalt()
	if err != nil {
		return 0, NewInternalError("failed to generate salt", err)
	}
	hashed, err := util.HashPasswordArgon2(password, salt)
	if err != nil {
		return 0, NewInternalError("failed to hash password", err)
	}

	var userID uint
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		var reset model.PasswordReset
		err := tx.Where("token_hash = ? AND used_at IS NULL AND expires_at > ?", util.HashResetToken(token), now).
			First(&reset).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errResetTokenSpent
		}
		if err != nil {
			return err
		}

		claim := tx.Model(&model.PasswordReset{}).
			Where("id = ? AND used_at IS NULL", reset.ID).
			Update("used_at", now)
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return errResetTokenSpent
		}

		res := tx.Model(&model.User{}).Where("id = ?", reset.UserID).Updates(map[string]interface{}{
			"password":        hashed,
			"password_salt":   salt,
			"failed_attempts": 0,
			"locked_until":    nil,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errResetTokenSpent
		}
		userID = reset.UserID
		return nil
	})
	if errors.Is(err, errResetTokenSpent) {
		return 0, NewUnauthorizedError("reset token is invalid or expired")
	}
	if err != nil {
		return 0, NewInternalError("failed to reset password", err)
	}
	return userID, nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ariebrainware/medlink/model"
	"github.com/ariebrainware/medlink/util"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// editableFields are the profile columns a doctor may ask to change.
var editableFields = map[string]bool{
	"name":                true,
	"city":                true,
	"years_of_experience": true,
}

// SubmitChangeRequest stores a doctor's proposed profile edit for review.
// Keys outside the editable set are rejected.
func SubmitChangeRequest(ctx context.Context, db *gorm.DB, userID uint, changes map[string]interface{}) (*model.ChangeRequest, error) {
	clean, err := sanitizeChanges(changes)
	if err != nil {
		return nil, err
	}
	doctor, err := DoctorForUser(ctx, db, userID)
	if err != nil {
		if IsType(err, ErrorTypeNotFound) {
			return nil, NewForbiddenError("user %d has no doctor profile", userID)
		}
		return nil, err
	}
	raw, err := json.Marshal(clean)
	if err != nil {
		return nil, NewInternalError("failed to encode changes", err)
	}
	cr := model.ChangeRequest{
		DoctorID:         doctor.ID,
		RequestedChanges: datatypes.JSON(raw),
		Status:           model.ChangeRequestPending,
	}
	if err := db.WithContext(ctx).Create(&cr).Error; err != nil {
		return nil, NewInternalError("failed to save change request", err)
	}
	return &cr, nil
}

func sanitizeChanges(changes map[string]interface{}) (map[string]interface{}, error) {
	if len(changes) == 0 {
		return nil, NewValidationError("no changes requested")
	}
	clean := make(map[string]interface{}, len(changes))
	for k, v := range changes {
		if !editableFields[k] {
			return nil, NewValidationError("field %q cannot be changed", k)
		}
		switch k {
		case "years_of_experience":
			n, ok := v.(float64)
			if !ok || n < 0 || n != math.Trunc(n) {
				return nil, NewValidationError("years_of_experience must be a non-negative integer")
			}
			clean[k] = int(n)
		default:
			s, ok := v.(string)
			if !ok || strings.TrimSpace(s) == "" {
				return nil, NewValidationError("%s must be a non-empty string", k)
			}
			clean[k] = strings.TrimSpace(s)
		}
	}
	return clean, nil
}

// PendingChangeRequests lists requests awaiting a decision, oldest first.
func PendingChangeRequests(ctx context.Context, db *gorm.DB) ([]model.ChangeRequest, error) {
	out := []model.ChangeRequest{}
	err := db.WithContext(ctx).
		Preload("Doctor").
		Where("status = ?", model.ChangeRequestPending).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, NewInternalError("failed to list change requests", err)
	}
	return out, nil
}

// DoctorChangeRequests lists a doctor's own pending requests.
func DoctorChangeRequests(ctx context.Context, db *gorm.DB, doctorID uint) ([]model.ChangeRequest, error) {
	out := []model.ChangeRequest{}
	err := db.WithContext(ctx).
		Where("doctor_id = ? AND status = ?", doctorID, model.ChangeRequestPending).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, NewInternalError("failed to list change requests", err)
	}
	return out, nil
}

var errNotPending = errors.New("change request already processed")

// ProcessChangeRequest approves or rejects a pending request. Approval
// applies the editable fields to the doctor in the same transaction.
func ProcessChangeRequest(ctx context.Context, db *gorm.DB, adminID, id uint, status string) (*model.ChangeRequest, error) {
	if status != model.ChangeRequestApproved && status != model.ChangeRequestRejected {
		return nil, NewValidationError("status must be %s or %s", model.ChangeRequestApproved, model.ChangeRequestRejected)
	}

	var cr model.ChangeRequest
	var fields []string
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&cr, id).Error; err != nil {
			return notFoundOr(err, "change request", id)
		}
		if cr.Status != model.ChangeRequestPending {
			return errNotPending
		}
		res := tx.Model(&model.ChangeRequest{}).
			Where("id = ? AND status = ?", cr.ID, model.ChangeRequestPending).
			Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotPending
		}
		cr.Status = status
		if status != model.ChangeRequestApproved {
			return nil
		}

		var changes map[string]interface{}
		if err := json.Unmarshal(cr.RequestedChanges, &changes); err != nil {
			return fmt.Errorf("decode requested changes: %w", err)
		}
		updates := map[string]interface{}{}
		for k, v := range changes {
			if editableFields[k] {
				updates[k] = v
				fields = append(fields, k)
			}
		}
		sort.Strings(fields)
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&model.Doctor{}).Where("id = ?", cr.DoctorID).Updates(updates).Error
	})
	if errors.Is(err, errNotPending) {
		return nil, NewConflictError("change request %d is already %s", id, strings.ToLower(cr.Status))
	}
	if err != nil {
		var appErr *AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, NewInternalError("failed to process change request", err)
	}

	util.LogProfileChange(adminID, cr.DoctorID, status, fields)
	return &cr, nil
}

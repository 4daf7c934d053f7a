package util

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ariebrainware/medlink/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SecurityEventType represents different types of security events
type SecurityEventType string

const (
	EventLoginSuccess       SecurityEventType = "LOGIN_SUCCESS"
	EventLoginFailure       SecurityEventType = "LOGIN_FAILURE"
	EventSignupSuccess      SecurityEventType = "SIGNUP_SUCCESS"
	EventLogout             SecurityEventType = "LOGOUT"
	EventAccountLocked      SecurityEventType = "ACCOUNT_LOCKED"
	EventPasswordChanged    SecurityEventType = "PASSWORD_CHANGED"
	EventUnauthorizedAccess SecurityEventType = "UNAUTHORIZED_ACCESS"
	EventRateLimitExceeded  SecurityEventType = "RATE_LIMIT_EXCEEDED"
	EventSuspiciousActivity SecurityEventType = "SUSPICIOUS_ACTIVITY"
	EventEndpointCall       SecurityEventType = "ENDPOINT_CALL"
	EventProfileChange      SecurityEventType = "PROFILE_CHANGE"
)

const maxLogValueLen = 200

// SecurityEvent represents a security event to be logged
type SecurityEvent struct {
	EventType SecurityEventType
	UserID    string
	Email     string
	IP        string
	UserAgent string
	Message   string
	Details   map[string]interface{}
}

var (
	securityLogger = log.New(os.Stdout, "[SECURITY] ", log.LstdFlags|log.Lmsgprefix)
	securityDB     *gorm.DB
)

// SetSecurityLoggerDB enables persistence of security events to security_logs.
// Pass nil to disable it again.
func SetSecurityLoggerDB(db *gorm.DB) {
	securityDB = db
}

// SetSecurityLogger swaps the line logger, mostly for tests capturing output.
func SetSecurityLogger(l *log.Logger) *log.Logger {
	prev := securityLogger
	securityLogger = l
	return prev
}

// sanitizeLogValue flattens control whitespace and truncates long values so
// one event stays on one log line.
func sanitizeLogValue(value string) string {
	value = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(value)
	if len(value) > maxLogValueLen {
		value = value[:maxLogValueLen] + "..."
	}
	return value
}

func formatLocation(loc IPLocation) string {
	switch {
	case loc.City != "" && loc.Country != "":
		return loc.City + "/" + loc.Country
	case loc.Country != "":
		return loc.Country
	}
	return loc.City
}

// LogSecurityEvent writes event to the security log and, when a DB is
// configured, persists it. Persistence failures never reach the caller.
func LogSecurityEvent(event SecurityEvent) {
	msg := fmt.Sprintf("Event=%s UserID=%s Email=%s IP=%s UserAgent=%s Message=%s",
		sanitizeLogValue(string(event.EventType)),
		sanitizeLogValue(event.UserID),
		sanitizeLogValue(event.Email),
		sanitizeLogValue(event.IP),
		sanitizeLogValue(event.UserAgent),
		sanitizeLogValue(event.Message),
	)
	if len(event.Details) > 0 {
		// details may hold user input; only their count reaches the line log
		msg = fmt.Sprintf("%s DetailsCount=%d", msg, len(event.Details))
	}
	securityLogger.Println(msg)

	if securityDB == nil {
		return
	}

	var details datatypes.JSON
	if event.Details != nil {
		if b, err := json.Marshal(event.Details); err == nil {
			details = datatypes.JSON(b)
		}
	}

	entry := model.SecurityLog{
		EventType: string(event.EventType),
		UserID:    event.UserID,
		Email:     sanitizeLogValue(event.Email),
		IP:        sanitizeLogValue(event.IP),
		Location:  sanitizeLogValue(formatLocation(GetIPLocation(event.IP))),
		UserAgent: sanitizeLogValue(event.UserAgent),
		Message:   sanitizeLogValue(event.Message),
		Details:   details,
	}
	if err := securityDB.Create(&entry).Error; err != nil {
		securityLogger.Printf("Failed to persist security event: %v", err)
	}
}

// LogLoginSuccess logs a successful login event
func LogLoginSuccess(userID uint, email, ip, userAgent string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventLoginSuccess,
		UserID:    fmt.Sprintf("%d", userID),
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Message:   "User logged in successfully",
	})
}

// LogLoginFailure logs a failed login attempt
func LogLoginFailure(email, ip, userAgent, reason string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventLoginFailure,
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Message:   fmt.Sprintf("Login failed: %s", reason),
	})
}

// LogLogout logs a logout event
func LogLogout(userID uint, email, ip, userAgent string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventLogout,
		UserID:    fmt.Sprintf("%d", userID),
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Message:   "User logged out",
	})
}

// LogAccountLocked logs when an account is locked
func LogAccountLocked(userID uint, email, ip string, reason string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventAccountLocked,
		UserID:    fmt.Sprintf("%d", userID),
		Email:     email,
		IP:        ip,
		Message:   fmt.Sprintf("Account locked: %s", reason),
	})
}

// LogUnauthorizedAccess logs a request that was authenticated but refused.
func LogUnauthorizedAccess(userID uint, ip, resource, reason string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventUnauthorizedAccess,
		UserID:    fmt.Sprintf("%d", userID),
		IP:        ip,
		Message:   fmt.Sprintf("Unauthorized access to %s: %s", resource, reason),
	})
}

// LogRateLimitExceeded logs when rate limit is exceeded
func LogRateLimitExceeded(ip, endpoint string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventRateLimitExceeded,
		IP:        ip,
		Message:   fmt.Sprintf("Rate limit exceeded for endpoint: %s", endpoint),
	})
}

// LogProfileChange records an admin decision on a doctor's change request.
func LogProfileChange(adminID, doctorID uint, status string, fields []string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventProfileChange,
		UserID:    fmt.Sprintf("%d", adminID),
		Message:   fmt.Sprintf("Change request for doctor %d %s", doctorID, strings.ToLower(status)),
		Details:   map[string]interface{}{"doctor_id": doctorID, "status": status, "fields": fields},
	})
}

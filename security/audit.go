package security

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"
)

// Auditor handles security event logging with PII protection.
type Auditor struct {
	logger  *slog.Logger
	enabled bool
}

// NewAuditor creates a security auditor. When disabled it is a no-op,
// so callers never need to nil-check before logging.
func NewAuditor(logger *slog.Logger, enabled bool) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{
		logger:  logger,
		enabled: enabled,
	}
}

// Event represents a security audit event
type Event struct {
	Type      string
	UserID    string
	ClientIP  string
	Details   map[string]any
	Timestamp time.Time
}

// LogEvent logs a security event with hashed PII
func (a *Auditor) LogEvent(event Event) {
	if !a.enabled {
		return
	}

	event.Timestamp = time.Now()

	a.logger.Info("security_audit",
		"event_type", event.Type,
		"user_id_hash", hashForLogging(event.UserID),
		"client_ip", event.ClientIP,
		"details", event.Details,
		"timestamp", event.Timestamp,
	)
}

// LogRateLimitExceeded logs a throttled request
func (a *Auditor) LogRateLimitExceeded(clientIP string, class EndpointClass) {
	a.LogEvent(Event{
		Type:     "rate_limit_exceeded",
		ClientIP: clientIP,
		Details: map[string]any{
			"endpoint_class": string(class),
		},
	})
}

// LogAuthFailure logs an authentication failure
func (a *Auditor) LogAuthFailure(userID, clientIP, reason string) {
	a.LogEvent(Event{
		Type:     "auth_failure",
		UserID:   userID,
		ClientIP: clientIP,
		Details: map[string]any{
			"reason": reason,
		},
	})
}

// LogCSRFRejected logs a mutating request rejected for a bad CSRF token
func (a *Auditor) LogCSRFRejected(userID, clientIP string) {
	a.LogEvent(Event{
		Type:     "csrf_rejected",
		UserID:   userID,
		ClientIP: clientIP,
	})
}

// LogAdminDenied logs a rejected admin-only request
func (a *Auditor) LogAdminDenied(userID, clientIP, reason string) {
	a.LogEvent(Event{
		Type:     "admin_denied",
		UserID:   userID,
		ClientIP: clientIP,
		Details: map[string]any{
			"reason": reason,
		},
	})
}

// LogValidationFailure logs a request rejected by input validation
func (a *Auditor) LogValidationFailure(clientIP, field string) {
	a.LogEvent(Event{
		Type:     "validation_failed",
		ClientIP: clientIP,
		Details: map[string]any{
			"field": field,
		},
	})
}

// hashForLogging produces a short stable hash so events for the same user
// can be correlated without putting the identifier itself in logs.
func hashForLogging(value string) string {
	if value == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:8])
}

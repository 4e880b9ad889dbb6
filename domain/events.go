package domain

import (
	"context"
	"time"
)

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Login events
	LoginCodeIssuedEvent   AuditEventType = "LOGIN_CODE_ISSUED"
	LoginUnknownPhoneEvent AuditEventType = "LOGIN_UNKNOWN_PHONE"
	LoginSucceededEvent    AuditEventType = "LOGIN_SUCCEEDED"
	LoginFailedEvent       AuditEventType = "LOGIN_FAILED"
	LogoutEvent            AuditEventType = "LOGOUT"

	// Authorization workflow events
	AuthorizationRequestedEvent AuditEventType = "AUTHORIZATION_REQUESTED"
	AuthorizationApprovedEvent  AuditEventType = "AUTHORIZATION_APPROVED"
	AuthorizationFailedEvent    AuditEventType = "AUTHORIZATION_VERIFICATION_FAILED"
	AuthorizationExpiredEvent   AuditEventType = "AUTHORIZATION_EXPIRED"
	AuthorizationRejectedEvent  AuditEventType = "AUTHORIZATION_REJECTED"

	// Data access events
	AccessGrantedEvent AuditEventType = "ACCESS_GRANTED"
	AccessDeniedEvent  AuditEventType = "ACCESS_DENIED"
)

// AuditEvent represents a business event that occurred in the system
type AuditEvent struct {
	EventType   AuditEventType         `json:"event_type"`
	PrincipalID uint                   `json:"principal_id,omitempty"`
	Phone       string                 `json:"phone,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	SessionID   string                 `json:"session_id,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	Success     bool                   `json:"success"`
}

// AuditLogger records audit events
type AuditLogger interface {
	LogEvent(ctx context.Context, event *AuditEvent) error
}

// NewAuditEvent creates a new audit event with common fields populated
func NewAuditEvent(eventType AuditEventType, principalID uint) *AuditEvent {
	return &AuditEvent{
		EventType:   eventType,
		PrincipalID: principalID,
		Timestamp:   time.Now().UTC(),
		Metadata:    make(map[string]interface{}),
		Success:     true,
	}
}

// WithError sets error information on the audit event
func (e *AuditEvent) WithError(err error) *AuditEvent {
	e.Success = false
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	return e
}

// WithPhone sets the phone field
func (e *AuditEvent) WithPhone(phone string) *AuditEvent {
	e.Phone = phone
	return e
}

// WithSession sets the client session the event belongs to
func (e *AuditEvent) WithSession(sessionID string) *AuditEvent {
	e.SessionID = sessionID
	return e
}

// WithMetadata adds metadata to the event
func (e *AuditEvent) WithMetadata(key string, value interface{}) *AuditEvent {
	e.Metadata[key] = value
	return e
}

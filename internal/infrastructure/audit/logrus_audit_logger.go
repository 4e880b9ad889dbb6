package audit

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/you/careauth/domain"
)

// LogrusAuditLogger implements domain.AuditLogger by writing structured log entries
type LogrusAuditLogger struct {
	log *logrus.Logger
}

// NewLogrusAuditLogger creates a new audit logger
func NewLogrusAuditLogger(log *logrus.Logger) domain.AuditLogger {
	return &LogrusAuditLogger{log: log}
}

// LogEvent implements domain.AuditLogger
func (a *LogrusAuditLogger) LogEvent(ctx context.Context, event *domain.AuditEvent) error {
	fields := logrus.Fields{
		"audit":      true,
		"event_type": event.EventType,
		"success":    event.Success,
		"timestamp":  event.Timestamp,
	}
	if event.PrincipalID != 0 {
		fields["principal_id"] = event.PrincipalID
	}
	if event.Phone != "" {
		fields["phone"] = event.Phone
	}
	if event.SessionID != "" {
		fields["session_id"] = event.SessionID
	}
	if event.ErrorMsg != "" {
		fields["error"] = event.ErrorMsg
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := a.log.WithContext(ctx).WithFields(fields)
	if event.Success {
		entry.Info("audit event")
	} else {
		entry.Warn("audit event")
	}
	return nil
}

package audit

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// AuditEvent represents a verification, authorization or submission event.
type AuditEvent struct {
	Timestamp time.Time
	EventType string // e.g. "SubmissionResult", "EthosTokenVerification"
	EntityID  string // wallet address or token subject
	Result    string // "success" or "failure"
	Reason    string
	Metadata  map[string]string
}

// Event types emitted by this module.
const (
	EventSubmissionResult       = "SubmissionResult"
	EventSignatureVerification  = "SignatureVerification"
	EventEthosTokenVerification = "EthosTokenVerification"
	EventAuthorization          = "Authorization"
)

// AuditLogger is the interface for logging audit events.
type AuditLogger interface {
	LogEvent(event AuditEvent)
}

// LogrusAuditLogger writes audit events as structured logrus entries.
type LogrusAuditLogger struct {
	Logger *log.Logger
}

func (l *LogrusAuditLogger) LogEvent(event AuditEvent) {
	logger := l.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	fields := log.Fields{
		"audit":     event.EventType,
		"entity":    event.EntityID,
		"result":    event.Result,
		"timestamp": event.Timestamp.UTC().Format(time.RFC3339),
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}
	entry := logger.WithFields(fields)
	if event.Result == "failure" {
		entry.Warn(event.Reason)
		return
	}
	entry.Info(event.Reason)
}

// NewLogrusAuditLogger returns an AuditLogger backed by the standard logrus logger.
func NewLogrusAuditLogger() AuditLogger {
	return &LogrusAuditLogger{}
}

// Discard drops every event.
type Discard struct{}

func (Discard) LogEvent(AuditEvent) {}

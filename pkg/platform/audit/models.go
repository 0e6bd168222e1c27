package audit

import (
	"time"

	id "pkdconsole/pkg/domain"
)

// Event is emitted from domain logic to capture key console actions. Keep
// it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	SessionID string    `json:"session_id,omitempty"`
	Operator  string    `json:"operator,omitempty"`
	// Outcome carries the terminal verdict for completed verifications
	// (VALID, INVALID, ERROR) or the failure class otherwise.
	Outcome string `json:"outcome,omitempty"`
	Reason  string `json:"reason,omitempty"`
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string `json:"request_id,omitempty"`
}

// WithOperator sets the acting operator if known.
func (e Event) WithOperator(op id.OperatorID) Event {
	if !op.IsZero() {
		e.Operator = op.String()
	}
	return e
}

// AuditEvent names the console actions worth an audit trail.
type AuditEvent string

const (
	EventVerificationSubmitted AuditEvent = "verification_submitted"
	EventVerificationCompleted AuditEvent = "verification_completed"
	EventVerificationFailed    AuditEvent = "verification_failed"
	EventSessionReset          AuditEvent = "session_reset"
	EventDSCAutoRegistered     AuditEvent = "dsc_auto_registered"
	EventQuickLookupPerformed  AuditEvent = "quick_lookup_performed"
)

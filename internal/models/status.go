package models

import "time"

// Delivery event types.
const (
	DeliveryEventSent   = "sent"
	DeliveryEventFailed = "failed"
)

// AttemptRecord is the serialisable form of a DeliveryAttemptResult.
type AttemptRecord struct {
	Channel   string `json:"channel"`
	Succeeded bool   `json:"succeeded"`
	Reason    string `json:"reason,omitempty"`
}

// DeliveryEvent is emitted once per dispatch for auditing.
type DeliveryEvent struct {
	DispatchID string          `json:"dispatch_id"`
	Kind       MessageKind     `json:"kind"`
	EventType  string          `json:"event_type"`
	Channel    string          `json:"channel,omitempty"`
	Recipient  Recipient       `json:"recipient"`
	Subject    string          `json:"subject"`
	Attempts   []AttemptRecord `json:"attempts"`
	Error      string          `json:"error,omitempty"`
	DurationMs int64           `json:"duration_ms"`
	Timestamp  time.Time       `json:"timestamp"`
}

// UndeliveredRecord captures a message no channel accepted. It is published
// for an operator to read and is never replayed.
type UndeliveredRecord struct {
	DispatchID string          `json:"dispatch_id"`
	Kind       MessageKind     `json:"kind"`
	Recipient  Recipient       `json:"recipient"`
	To         string          `json:"to,omitempty"`
	Subject    string          `json:"subject"`
	PlainBody  string          `json:"plain_body"`
	LastError  string          `json:"last_error"`
	Attempts   []AttemptRecord `json:"attempts"`
	FailedAt   time.Time       `json:"failed_at"`
}

package models

import "time"

type EventAction string

const (
	EventCreated EventAction = "created"
	EventUpdated EventAction = "updated"
	EventDeleted EventAction = "deleted"
)

// TransactionEvent records a change to a transaction for the audit trail.
type TransactionEvent struct {
	ID            string      `json:"id"`
	TransactionID string      `json:"transactionId"`
	UserID        string      `json:"userId"`
	Action        EventAction `json:"action"`
	OccurredAt    time.Time   `json:"occurredAt"`
	RecordedAt    time.Time   `json:"recordedAt,omitempty"`
}

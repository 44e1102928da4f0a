// Package events publishes transaction change notifications to an AMQP exchange and
// consumes them on the worker side.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"finance-dashboard/src/models"
)

// TransactionMessage is the body of a transaction change notification. It carries ids
// only; consumers read the transaction from the store if they need more.
type TransactionMessage struct {
	EventID       string             `json:"eventId"`
	TransactionID string             `json:"transactionId"`
	UserID        string             `json:"userId"`
	Action        models.EventAction `json:"action"`
	OccurredAt    time.Time          `json:"occurredAt"`
}

func NewTransactionMessage(action models.EventAction, t models.Transaction, at time.Time) TransactionMessage {
	return TransactionMessage{
		EventID:       uuid.NewString(),
		TransactionID: t.ID,
		UserID:        t.UserID,
		Action:        action,
		OccurredAt:    at.UTC(),
	}
}

func (m TransactionMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionMessageFromJSON(data []byte) (TransactionMessage, error) {
	var msg TransactionMessage
	err := json.Unmarshal(data, &msg)
	return msg, err
}

// Event converts the message into the audit-trail record.
func (m TransactionMessage) Event() models.TransactionEvent {
	return models.TransactionEvent{
		ID:            m.EventID,
		TransactionID: m.TransactionID,
		UserID:        m.UserID,
		Action:        m.Action,
		OccurredAt:    m.OccurredAt,
	}
}

// Publisher announces transaction changes. Publishing is best effort: callers log a
// failure and carry on, the change itself is already stored.
type Publisher interface {
	PublishTransaction(ctx context.Context, msg TransactionMessage) error
}

// Nop is the Publisher used when no broker is configured.
type Nop struct{}

func (Nop) PublishTransaction(context.Context, TransactionMessage) error { return nil }

// Package worker turns transaction change messages into audit-trail records.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finance-dashboard/src/events"
	"finance-dashboard/src/logging"
	"finance-dashboard/src/store"
)

// ErrIncompleteMessage is returned for messages that lack an event or transaction id.
var ErrIncompleteMessage = errors.New("message is missing event or transaction id")

// AuditWorker records every consumed transaction message in the event store.
type AuditWorker struct {
	store  store.EventStore
	now    func() time.Time
	logger *logging.Logger
}

func NewAuditWorker(st store.EventStore, logger *logging.Logger) *AuditWorker {
	return &AuditWorker{
		store:  st,
		now:    time.Now,
		logger: logger.WithComponent(logging.ComponentWorker),
	}
}

func (w *AuditWorker) WithClock(now func() time.Time) *AuditWorker {
	w.now = now
	return w
}

// HandleTransactionMessage stores msg once. Redelivered messages with a known event
// id are accepted without a second record.
func (w *AuditWorker) HandleTransactionMessage(ctx context.Context, msg events.TransactionMessage) error {
	if msg.EventID == "" || msg.TransactionID == "" {
		return ErrIncompleteMessage
	}

	e := msg.Event()
	e.RecordedAt = w.now().UTC()
	if err := w.store.RecordEvent(ctx, e); err != nil && !errors.Is(err, store.ErrDuplicate) {
		return fmt.Errorf("record event %s: %w", msg.EventID, err)
	}

	w.logger.InfoContext(ctx, "Recorded transaction event",
		"event_id", msg.EventID,
		logging.FieldTransactionID, msg.TransactionID,
		"action", msg.Action)
	return nil
}

package db

import (
	"context"

	"finance-dashboard/src/models"
)

func RecordTransactionEvent(ctx context.Context, q DBTX, e models.TransactionEvent) error {
	query := `
		INSERT INTO transaction_events (id, transaction_id, user_id, action, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := q.Exec(ctx, query, e.ID, e.TransactionID, e.UserID, string(e.Action), e.OccurredAt)
	return err
}

func GetTransactionEvents(ctx context.Context, q DBTX, transactionID string) ([]models.TransactionEvent, error) {
	query := `
		SELECT id, transaction_id, user_id, action, occurred_at, recorded_at
		FROM transaction_events WHERE transaction_id = $1
		ORDER BY occurred_at
	`
	rows, err := q.Query(ctx, query, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.TransactionEvent{}
	for rows.Next() {
		var e models.TransactionEvent
		var action string
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.UserID, &action, &e.OccurredAt, &e.RecordedAt); err != nil {
			return nil, err
		}
		e.Action = models.EventAction(action)
		events = append(events, e)
	}
	return events, rows.Err()
}

package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"finance-dashboard/src/models"
	"finance-dashboard/src/query"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

const transactionColumns = `id, user_id, date, description, category, amount, type, status, account, notes, tags, created_at, updated_at`

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var t models.Transaction
	var typ, status string
	err := row.Scan(&t.ID, &t.UserID, &t.Date, &t.Description, &t.Category, &t.Amount,
		&typ, &status, &t.Account, &t.Notes, &t.Tags, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Type = models.TransactionType(typ)
	t.Status = models.NormalizeStatus(status)
	return &t, nil
}

func CreateTransaction(ctx context.Context, q DBTX, t *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, date, description, category, amount, type, status, account, notes, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	return q.QueryRow(ctx, query, t.ID, t.UserID, t.Date, t.Description, t.Category, t.Amount,
		string(t.Type), string(t.Status), t.Account, t.Notes, tags(t.Tags)).
		Scan(&t.CreatedAt, &t.UpdatedAt)
}

func GetTransaction(ctx context.Context, q DBTX, ownerID, id string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 AND user_id = $2`
	return scanTransaction(q.QueryRow(ctx, query, id, ownerID))
}

// GetTransactionForUpdate locks the row until the surrounding transaction ends.
func GetTransactionForUpdate(ctx context.Context, tx pgx.Tx, ownerID, id string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 AND user_id = $2 FOR UPDATE`
	return scanTransaction(tx.QueryRow(ctx, query, id, ownerID))
}

func UpdateTransaction(ctx context.Context, q DBTX, t *models.Transaction) (*models.Transaction, error) {
	query := `
		UPDATE transactions
		SET date = $3, description = $4, category = $5, amount = $6, type = $7, status = $8,
			account = $9, notes = $10, tags = $11, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + transactionColumns
	return scanTransaction(q.QueryRow(ctx, query, t.ID, t.UserID, t.Date, t.Description, t.Category, t.Amount,
		string(t.Type), string(t.Status), t.Account, t.Notes, tags(t.Tags)))
}

func DeleteTransaction(ctx context.Context, q DBTX, ownerID, id string) error {
	query := `DELETE FROM transactions WHERE id = $1 AND user_id = $2`
	cmd, err := q.Exec(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func ListTransactions(ctx context.Context, q DBTX, ownerID string, opts query.Options) ([]models.Transaction, error) {
	b := query.NewBuilder(query.Postgres, ownerID)
	where, err := b.Where(opts.Filter.Condition())
	if err != nil {
		return nil, err
	}
	sql := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1 AND ` + where +
		` ORDER BY ` + b.OrderBy(opts.Sort) + b.LimitOffset(opts.Limit, opts.Offset)

	rows, err := q.Query(ctx, sql, b.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

func CountTransactions(ctx context.Context, q DBTX, ownerID string, f query.Filter) (int, error) {
	b := query.NewBuilder(query.Postgres, ownerID)
	where, err := b.Where(f.Condition())
	if err != nil {
		return 0, err
	}
	var count int
	err = q.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE user_id = $1 AND `+where, b.Args...).Scan(&count)
	return count, err
}

func GetCategories(ctx context.Context, q DBTX, ownerID string) ([]string, error) {
	query := `SELECT DISTINCT category FROM transactions WHERE user_id = $1 AND category <> ''`
	rows, err := q.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// InsertTransactions batches inserts and skips ids that already exist.
func InsertTransactions(ctx context.Context, q DBTX, list []models.Transaction) (int, error) {
	if len(list) == 0 {
		return 0, nil
	}
	query := `
		INSERT INTO transactions (id, user_id, date, description, category, amount, type, status, account, notes, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, COALESCE($12, NOW()), COALESCE($12, NOW()))
		ON CONFLICT (id) DO NOTHING
	`
	batch := &pgx.Batch{}
	for _, t := range list {
		var created *time.Time
		if !t.CreatedAt.IsZero() {
			c := t.CreatedAt
			created = &c
		}
		batch.Queue(query, t.ID, t.UserID, t.Date, t.Description, t.Category, t.Amount,
			string(t.Type), string(t.Status), t.Account, t.Notes, tags(t.Tags), created)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range list {
		cmd, err := results.Exec()
		if err != nil {
			return inserted, err
		}
		inserted += int(cmd.RowsAffected())
	}
	return inserted, nil
}

func tags(t []string) []string {
	if t == nil {
		return []string{}
	}
	return t
}

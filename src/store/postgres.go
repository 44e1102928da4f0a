package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"finance-dashboard/src/db"
	dbsql "finance-dashboard/src/db/sql"
	"finance-dashboard/src/models"
	"finance-dashboard/src/query"
)

type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to url and brings the schema up to date.
func NewPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := db.Connect(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := db.MigratePostgres(pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// pgError maps driver errors onto the store sentinels.
func pgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func (p *Postgres) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	return pgError(dbsql.CreateTransaction(ctx, p.pool, t))
}

func (p *Postgres) GetTransaction(ctx context.Context, ownerID, id string) (*models.Transaction, error) {
	t, err := dbsql.GetTransaction(ctx, p.pool, ownerID, id)
	return t, pgError(err)
}

func (p *Postgres) UpdateTransaction(ctx context.Context, ownerID, id string, patch models.TransactionPatch) (*models.Transaction, error) {
	var updated *models.Transaction
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		current, err := dbsql.GetTransactionForUpdate(ctx, tx, ownerID, id)
		if err != nil {
			return err
		}
		if !patch.Apply(current) {
			updated = current
			return nil
		}
		updated, err = dbsql.UpdateTransaction(ctx, tx, current)
		return err
	})
	if err != nil {
		return nil, pgError(err)
	}
	return updated, nil
}

func (p *Postgres) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	return pgError(dbsql.DeleteTransaction(ctx, p.pool, ownerID, id))
}

func (p *Postgres) ListTransactions(ctx context.Context, ownerID string, opts query.Options) ([]models.Transaction, int, error) {
	list, err := dbsql.ListTransactions(ctx, p.pool, ownerID, opts)
	if err != nil {
		return nil, 0, pgError(err)
	}
	if opts.Limit <= 0 && opts.Offset <= 0 {
		return list, len(list), nil
	}
	total, err := dbsql.CountTransactions(ctx, p.pool, ownerID, opts.Filter)
	return list, total, pgError(err)
}

func (p *Postgres) CountTransactions(ctx context.Context, ownerID string, f query.Filter) (int, error) {
	n, err := dbsql.CountTransactions(ctx, p.pool, ownerID, f)
	return n, pgError(err)
}

func (p *Postgres) Categories(ctx context.Context, ownerID string) ([]string, error) {
	categories, err := dbsql.GetCategories(ctx, p.pool, ownerID)
	if err != nil {
		return nil, pgError(err)
	}
	query.SortStrings(categories)
	return categories, nil
}

func (p *Postgres) InsertTransactions(ctx context.Context, list []models.Transaction) (int, error) {
	n, err := dbsql.InsertTransactions(ctx, p.pool, list)
	return n, pgError(err)
}

func (p *Postgres) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return pgError(dbsql.CreateUser(ctx, p.pool, u))
}

func (p *Postgres) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	u, err := dbsql.GetUserByID(ctx, p.pool, id)
	return u, pgError(err)
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := dbsql.GetUserByEmail(ctx, p.pool, strings.ToLower(strings.TrimSpace(email)))
	return u, pgError(err)
}

func (p *Postgres) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := dbsql.GetAllUsers(ctx, p.pool)
	return users, pgError(err)
}

func (p *Postgres) SetUserActive(ctx context.Context, id string, active bool) (*models.User, error) {
	u, err := dbsql.SetUserActive(ctx, p.pool, id, active)
	return u, pgError(err)
}

func (p *Postgres) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return pgError(dbsql.UpdateUserLastLogin(ctx, p.pool, id, at))
}

func (p *Postgres) RecordEvent(ctx context.Context, e models.TransactionEvent) error {
	return pgError(dbsql.RecordTransactionEvent(ctx, p.pool, e))
}

func (p *Postgres) ListEvents(ctx context.Context, transactionID string) ([]models.TransactionEvent, error) {
	events, err := dbsql.GetTransactionEvents(ctx, p.pool, transactionID)
	return events, pgError(err)
}

// Package store defines persistence for transactions, users and audit events, with
// in-memory, PostgreSQL and SQLite implementations behind one interface.
package store

import (
	"context"
	"errors"
	"time"

	"finance-dashboard/src/models"
	"finance-dashboard/src/query"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// TransactionStore reads and writes transactions. Every call except bulk insert is
// scoped to one owner; other owners' records behave as if they did not exist.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	GetTransaction(ctx context.Context, ownerID, id string) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, ownerID, id string, patch models.TransactionPatch) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, ownerID, id string) error
	// ListTransactions returns the page selected by opts plus the number of records
	// matching opts.Filter before windowing.
	ListTransactions(ctx context.Context, ownerID string, opts query.Options) ([]models.Transaction, int, error)
	CountTransactions(ctx context.Context, ownerID string, f query.Filter) (int, error)
	Categories(ctx context.Context, ownerID string) ([]string, error)
	// InsertTransactions stores records that already carry ids, skipping ids that exist.
	// It returns the number inserted.
	InsertTransactions(ctx context.Context, list []models.Transaction) (int, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SetUserActive(ctx context.Context, id string, active bool) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// EventStore keeps the transaction audit trail. Recording is idempotent on event id.
type EventStore interface {
	RecordEvent(ctx context.Context, e models.TransactionEvent) error
	ListEvents(ctx context.Context, transactionID string) ([]models.TransactionEvent, error)
}

type Store interface {
	TransactionStore
	UserStore
	EventStore
	Close() error
}

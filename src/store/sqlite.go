package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"finance-dashboard/src/db"
	"finance-dashboard/src/models"
	"finance-dashboard/src/query"
)

// SQLite stores everything in a single database file. Timestamps are kept as
// fixed-width UTC text so that text comparison orders chronologically.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent requests.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := db.MigrateSQLite(path); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: conn, now: time.Now}, nil
}

func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(query.SQLiteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(query.SQLiteTimeLayout, s)
}

func sqliteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var se *sqlite.Error
	if errors.As(err, &se) && (se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY) {
		return fmt.Errorf("%w: %s", ErrDuplicate, se.Error())
	}
	return err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

const sqliteTransactionColumns = `id, user_id, date, description, category, amount, type, status, account, notes, tags, created_at, updated_at`

func scanSQLiteTransaction(row scanner) (*models.Transaction, error) {
	var t models.Transaction
	var date, created, updated, typ, status, tags string
	err := row.Scan(&t.ID, &t.UserID, &date, &t.Description, &t.Category, &t.Amount,
		&typ, &status, &t.Account, &t.Notes, &tags, &created, &updated)
	if err != nil {
		return nil, err
	}
	if t.Date, err = parseTime(date); err != nil {
		return nil, fmt.Errorf("parse date of %s: %w", t.ID, err)
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parse created_at of %s: %w", t.ID, err)
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("parse updated_at of %s: %w", t.ID, err)
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return nil, fmt.Errorf("decode tags of %s: %w", t.ID, err)
	}
	t.Type = models.TransactionType(typ)
	t.Status = models.NormalizeStatus(status)
	return &t, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	return string(b), err
}

func (s *SQLite) insertTransaction(ctx context.Context, verb string, t *models.Transaction) (sql.Result, error) {
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return nil, err
	}
	q := verb + ` INTO transactions (` + sqliteTransactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	return s.db.ExecContext(ctx, q, t.ID, t.UserID, formatTime(t.Date), t.Description, t.Category, t.Amount,
		string(t.Type), string(t.Status), t.Account, t.Notes, tags, formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
}

func (s *SQLite) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	now := s.now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	_, err := s.insertTransaction(ctx, "INSERT", t)
	return sqliteError(err)
}

func (s *SQLite) GetTransaction(ctx context.Context, ownerID, id string) (*models.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteTransactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, ownerID)
	t, err := scanSQLiteTransaction(row)
	return t, sqliteError(err)
}

func (s *SQLite) UpdateTransaction(ctx context.Context, ownerID, id string, patch models.TransactionPatch) (*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+sqliteTransactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, ownerID)
	t, err := scanSQLiteTransaction(row)
	if err != nil {
		return nil, sqliteError(err)
	}
	if !patch.Apply(t) {
		return t, nil
	}
	t.UpdatedAt = s.now().UTC()

	tags, err := encodeTags(t.Tags)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE transactions
		SET date = ?, description = ?, category = ?, amount = ?, type = ?, status = ?,
			account = ?, notes = ?, tags = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		formatTime(t.Date), t.Description, t.Category, t.Amount, string(t.Type), string(t.Status),
		t.Account, t.Notes, tags, formatTime(t.UpdatedAt), id, ownerID)
	if err != nil {
		return nil, sqliteError(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *SQLite) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return sqliteError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) ListTransactions(ctx context.Context, ownerID string, opts query.Options) ([]models.Transaction, int, error) {
	b := query.NewBuilder(query.SQLite, ownerID)
	where, err := b.Where(opts.Filter.Condition())
	if err != nil {
		return nil, 0, err
	}
	q := `SELECT ` + sqliteTransactionColumns + ` FROM transactions WHERE user_id = ? AND ` + where +
		` ORDER BY ` + b.OrderBy(opts.Sort) + b.LimitOffset(opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, q, b.Args...)
	if err != nil {
		return nil, 0, sqliteError(err)
	}
	defer rows.Close()

	list := []models.Transaction{}
	for rows.Next() {
		t, err := scanSQLiteTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	rows.Close()

	if opts.Limit <= 0 && opts.Offset <= 0 {
		return list, len(list), nil
	}
	total, err := s.CountTransactions(ctx, ownerID, opts.Filter)
	return list, total, err
}

func (s *SQLite) CountTransactions(ctx context.Context, ownerID string, f query.Filter) (int, error) {
	b := query.NewBuilder(query.SQLite, ownerID)
	where, err := b.Where(f.Condition())
	if err != nil {
		return 0, err
	}
	var n int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE user_id = ? AND `+where, b.Args...).Scan(&n)
	return n, sqliteError(err)
}

func (s *SQLite) Categories(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM transactions WHERE user_id = ? AND category <> ''`, ownerID)
	if err != nil {
		return nil, sqliteError(err)
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	query.SortStrings(categories)
	return categories, nil
}

func (s *SQLite) InsertTransactions(ctx context.Context, list []models.Transaction) (int, error) {
	inserted := 0
	for i := range list {
		t := list[i]
		now := s.now().UTC()
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = t.CreatedAt
		}
		res, err := s.insertTransaction(ctx, "INSERT OR IGNORE", &t)
		if err != nil {
			return inserted, sqliteError(err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

const sqliteUserColumns = `id, email, first_name, last_name, password_hash, role, is_active, last_login, created_at, updated_at`

func scanSQLiteUser(row scanner) (*models.User, error) {
	var u models.User
	var role, created, updated string
	var lastLogin sql.NullString
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash,
		&role, &u.IsActive, &lastLogin, &created, &updated)
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	if u.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		at, err := parseTime(lastLogin.String)
		if err != nil {
			return nil, err
		}
		u.LastLogin = &at
	}
	return &u, nil
}

func (s *SQLite) CreateUser(ctx context.Context, u *models.User) error {
	now := s.now().UTC()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, first_name, last_name, password_hash, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash, string(u.Role), u.IsActive, formatTime(now), formatTime(now))
	return sqliteError(err)
}

func (s *SQLite) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	u, err := scanSQLiteUser(s.db.QueryRowContext(ctx, `SELECT `+sqliteUserColumns+` FROM users WHERE id = ?`, id))
	return u, sqliteError(err)
}

func (s *SQLite) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanSQLiteUser(s.db.QueryRowContext(ctx, `SELECT `+sqliteUserColumns+` FROM users WHERE email = ?`, email))
	return u, sqliteError(err)
}

func (s *SQLite) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteUserColumns+` FROM users ORDER BY created_at DESC, email`)
	if err != nil {
		return nil, sqliteError(err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanSQLiteUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *SQLite) SetUserActive(ctx context.Context, id string, active bool) (*models.User, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, formatTime(s.now()), id)
	if err != nil {
		return nil, sqliteError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetUserByID(ctx, id)
}

func (s *SQLite) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return sqliteError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) RecordEvent(ctx context.Context, e models.TransactionEvent) error {
	recorded := e.RecordedAt
	if recorded.IsZero() {
		recorded = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO transaction_events (id, transaction_id, user_id, action, occurred_at, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.TransactionID, e.UserID, string(e.Action), formatTime(e.OccurredAt), formatTime(recorded))
	return sqliteError(err)
}

func (s *SQLite) ListEvents(ctx context.Context, transactionID string) ([]models.TransactionEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id, user_id, action, occurred_at, recorded_at
		FROM transaction_events WHERE transaction_id = ? ORDER BY occurred_at`, transactionID)
	if err != nil {
		return nil, sqliteError(err)
	}
	defer rows.Close()

	events := []models.TransactionEvent{}
	for rows.Next() {
		var e models.TransactionEvent
		var action, occurred, recorded string
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.UserID, &action, &occurred, &recorded); err != nil {
			return nil, err
		}
		e.Action = models.EventAction(action)
		if e.OccurredAt, err = parseTime(occurred); err != nil {
			return nil, err
		}
		if e.RecordedAt, err = parseTime(recorded); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"finance-dashboard/src/models"
)

const userColumns = `id, email, first_name, last_name, password_hash, role, is_active, last_login, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash,
		&role, &u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}

func CreateUser(ctx context.Context, q DBTX, u *models.User) error {
	query := `
		INSERT INTO users (id, email, first_name, last_name, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	return q.QueryRow(ctx, query, u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash, string(u.Role), u.IsActive).
		Scan(&u.CreatedAt, &u.UpdatedAt)
}

func GetUserByID(ctx context.Context, q DBTX, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(q.QueryRow(ctx, query, id))
}

func GetUserByEmail(ctx context.Context, q DBTX, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(q.QueryRow(ctx, query, email))
}

func GetAllUsers(ctx context.Context, q DBTX) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, email`
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func SetUserActive(ctx context.Context, q DBTX, id string, active bool) (*models.User, error) {
	query := `UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + userColumns
	return scanUser(q.QueryRow(ctx, query, id, active))
}

func UpdateUserLastLogin(ctx context.Context, q DBTX, id string, at time.Time) error {
	query := `UPDATE users SET last_login = $2 WHERE id = $1`
	cmd, err := q.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

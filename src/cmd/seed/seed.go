package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"finance-dashboard/src/importer"
	"finance-dashboard/src/logging"
	"finance-dashboard/src/models"
	"finance-dashboard/src/services"
	"finance-dashboard/src/store"
)

type demoUser struct {
	email     string
	firstName string
	lastName  string
	role      models.Role
}

var demoUsers = []demoUser{
	{"user1@example.com", "User", "One", models.RoleUser},
	{"user2@example.com", "User", "Two", models.RoleUser},
	{"user3@example.com", "User", "Three", models.RoleUser},
	{"user4@example.com", "User", "Four", models.RoleUser},
	{"admin@example.com", "Admin", "User", models.RoleAdmin},
}

type seeder struct {
	store    store.Store
	password string
	loc      *time.Location
	logger   *logging.Logger
}

// ensureUsers creates the demo accounts that do not exist yet and returns the ids
// of the non-admin ones in declaration order.
func (s seeder) ensureUsers(ctx context.Context) ([]string, error) {
	hash, err := services.HashPassword(s.password)
	if err != nil {
		return nil, err
	}

	var owners []string
	for _, d := range demoUsers {
		u := &models.User{
			ID:           uuid.NewString(),
			Email:        d.email,
			FirstName:    d.firstName,
			LastName:     d.lastName,
			PasswordHash: hash,
			Role:         d.role,
			IsActive:     true,
		}
		err := s.store.CreateUser(ctx, u)
		switch {
		case errors.Is(err, store.ErrDuplicate):
			existing, err := s.store.GetUserByEmail(ctx, d.email)
			if err != nil {
				return nil, fmt.Errorf("load existing user %s: %w", d.email, err)
			}
			u = existing
			s.logger.Info("User already exists", "email", d.email)
		case err != nil:
			return nil, fmt.Errorf("create user %s: %w", d.email, err)
		default:
			s.logger.Info("Created user", "email", d.email, "role", d.role)
		}
		if d.role == models.RoleUser {
			owners = append(owners, u.ID)
		}
	}
	return owners, nil
}

// importDataset assigns the dataset's legacy owners to the demo users round-robin
// and inserts the converted rows. Rows seeded earlier keep their ids and are skipped.
func (s seeder) importDataset(ctx context.Context, records []importer.DatasetRecord, owners []string) (inserted, skipped int, err error) {
	if len(owners) == 0 {
		return 0, 0, errors.New("no demo users to own the dataset")
	}
	mapping := make(map[string]string)
	for i, legacy := range importer.LegacyOwners(records) {
		mapping[legacy] = owners[i%len(owners)]
	}

	res := importer.FromDataset(records, mapping, s.loc)
	n, err := s.store.InsertTransactions(ctx, res.Transactions)
	if err != nil {
		return 0, 0, fmt.Errorf("insert dataset: %w", err)
	}
	return n, res.Skipped + len(res.Transactions) - n, nil
}

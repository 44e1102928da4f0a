package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"finance-dashboard/src/importer"
	"finance-dashboard/src/logging"
	"finance-dashboard/src/query"
	"finance-dashboard/src/store"
)

const dataset = `[
	{"id": 1, "date": "2024-01-15T00:00:00Z", "amount": 120.5, "category": "Revenue", "status": "Paid", "user_id": "user_001"},
	{"id": 2, "date": "2024-01-16T00:00:00Z", "amount": 40, "category": "Expense", "status": "Pending", "user_id": "user_002"},
	{"id": "3", "date": "not a date", "amount": 10, "category": "Revenue", "status": "Paid", "user_id": "user_003"}
]`

func TestSeederIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	s := seeder{store: st, password: "password123", loc: time.UTC, logger: logging.Discard()}

	owners, err := s.ensureUsers(ctx)
	if err != nil {
		t.Fatalf("ensureUsers() error = %v", err)
	}
	if len(owners) != 4 {
		t.Fatalf("got %d owners, want 4", len(owners))
	}
	again, err := s.ensureUsers(ctx)
	if err != nil {
		t.Fatalf("second ensureUsers() error = %v", err)
	}
	for i := range owners {
		if owners[i] != again[i] {
			t.Errorf("owner %d changed from %s to %s", i, owners[i], again[i])
		}
	}
	users, _ := st.ListUsers(ctx)
	if len(users) != len(demoUsers) {
		t.Errorf("got %d users, want %d", len(users), len(demoUsers))
	}

	records, err := importer.ReadDataset(strings.NewReader(dataset))
	if err != nil {
		t.Fatalf("ReadDataset() error = %v", err)
	}
	inserted, skipped, err := s.importDataset(ctx, records, owners)
	if err != nil || inserted != 2 || skipped != 1 {
		t.Fatalf("importDataset() = %d, %d, %v; want 2, 1, nil", inserted, skipped, err)
	}
	inserted, skipped, err = s.importDataset(ctx, records, owners)
	if err != nil || inserted != 0 || skipped != 3 {
		t.Errorf("second importDataset() = %d, %d, %v; want 0, 3, nil", inserted, skipped, err)
	}

	list, _, err := st.ListTransactions(ctx, owners[1], query.Options{Sort: query.DefaultSort})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(list) != 1 || list[0].Type != "expense" || list[0].Description != "Imported Transaction 2" {
		t.Errorf("second owner's rows = %+v", list)
	}
}

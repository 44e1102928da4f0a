package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"finance-dashboard/src/models"
	"finance-dashboard/src/query"
)

// Memory keeps everything in process. It backs tests and DATA_BACKEND=memory.
type Memory struct {
	mu           sync.RWMutex
	transactions map[string]models.Transaction
	users        map[string]models.User
	events       map[string]models.TransactionEvent

	// seq records insertion order for transactions.
	seq  map[string]int64
	next int64
	now  func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		transactions: make(map[string]models.Transaction),
		users:        make(map[string]models.User),
		events:       make(map[string]models.TransactionEvent),
		seq:          make(map[string]int64),
		now:          time.Now,
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[t.ID]; ok {
		return ErrDuplicate
	}
	now := m.now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	m.put(*t)
	return nil
}

func (m *Memory) GetTransaction(ctx context.Context, ownerID, id string) (*models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.transactions[id]
	if !ok || t.UserID != ownerID {
		return nil, ErrNotFound
	}
	t = clone(t)
	return &t, nil
}

func (m *Memory) UpdateTransaction(ctx context.Context, ownerID, id string, patch models.TransactionPatch) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok || t.UserID != ownerID {
		return nil, ErrNotFound
	}
	t = clone(t)
	if patch.Apply(&t) {
		t.UpdatedAt = m.now().UTC()
	}
	m.transactions[id] = t
	out := clone(t)
	return &out, nil
}

func (m *Memory) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok || t.UserID != ownerID {
		return ErrNotFound
	}
	delete(m.transactions, id)
	delete(m.seq, id)
	return nil
}

func (m *Memory) put(t models.Transaction) {
	m.transactions[t.ID] = clone(t)
	m.seq[t.ID] = m.next
	m.next++
}

// owned returns the owner's transactions in insertion order.
func (m *Memory) owned(ownerID string) []models.Transaction {
	var out []models.Transaction
	for _, t := range m.transactions {
		if t.UserID == ownerID {
			out = append(out, clone(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.seq[out[i].ID] < m.seq[out[j].ID] })
	return out
}

func (m *Memory) ListTransactions(ctx context.Context, ownerID string, opts query.Options) ([]models.Transaction, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matched := query.Apply(m.owned(ownerID), opts.Filter)
	query.SortTransactions(matched, opts.Sort)
	return query.Window(matched, opts.Limit, opts.Offset), len(matched), nil
}

func (m *Memory) CountTransactions(ctx context.Context, ownerID string, f query.Filter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(query.Apply(m.owned(ownerID), f)), nil
}

func (m *Memory) Categories(ctx context.Context, ownerID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	out := []string{}
	for _, t := range m.transactions {
		if t.UserID == ownerID && t.Category != "" && !seen[t.Category] {
			seen[t.Category] = true
			out = append(out, t.Category)
		}
	}
	query.SortStrings(out)
	return out, nil
}

func (m *Memory) InsertTransactions(ctx context.Context, list []models.Transaction) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inserted := 0
	for _, t := range list {
		if _, ok := m.transactions[t.ID]; ok {
			continue
		}
		now := m.now().UTC()
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = t.CreatedAt
		}
		m.put(t)
		inserted++
	}
	return inserted, nil
}

func (m *Memory) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	email := strings.ToLower(u.Email)
	for _, existing := range m.users {
		if existing.Email == email || existing.ID == u.ID {
			return ErrDuplicate
		}
	}
	now := m.now().UTC()
	u.Email = email
	u.CreatedAt, u.UpdatedAt = now, now
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListUsers(ctx context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Email < out[j].Email
	})
	return out, nil
}

func (m *Memory) SetUserActive(ctx context.Context, id string, active bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.IsActive = active
	u.UpdatedAt = m.now().UTC()
	m.users[id] = u
	return &u, nil
}

func (m *Memory) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	at = at.UTC()
	u.LastLogin = &at
	m.users[id] = u
	return nil
}

func (m *Memory) RecordEvent(ctx context.Context, e models.TransactionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[e.ID]; ok {
		return nil
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = m.now().UTC()
	}
	m.events[e.ID] = e
	return nil
}

func (m *Memory) ListEvents(ctx context.Context, transactionID string) ([]models.TransactionEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.TransactionEvent{}
	for _, e := range m.events {
		if e.TransactionID == transactionID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

func clone(t models.Transaction) models.Transaction {
	if t.Tags != nil {
		t.Tags = append([]string(nil), t.Tags...)
	}
	return t
}

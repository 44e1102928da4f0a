package models

import (
	"strings"
	"time"
)

type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "completed"
	StatusPending   TransactionStatus = "pending"
	StatusFailed    TransactionStatus = "failed"

	// Older records were written with "paid" before the enum settled on "completed".
	legacyStatusPaid = "paid"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusCompleted, StatusPending, StatusFailed:
		return true
	}
	return false
}

// NormalizeStatus maps stored or imported status values onto the canonical enum.
// Unknown values are returned lower-cased so validation can reject them.
func NormalizeStatus(raw string) TransactionStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == legacyStatusPaid {
		return StatusCompleted
	}
	return TransactionStatus(s)
}

type Transaction struct {
	ID          string            `json:"id"`
	UserID      string            `json:"userId"`
	Date        time.Time         `json:"date"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Amount      float64           `json:"amount"`
	Type        TransactionType   `json:"type"`
	Status      TransactionStatus `json:"status"`
	Account     string            `json:"account"`
	Notes       string            `json:"notes,omitempty"`
	Tags        []string          `json:"tags"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func (t Transaction) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// TransactionPatch carries a partial update. Nil fields are left untouched.
type TransactionPatch struct {
	Date        *time.Time
	Description *string
	Category    *string
	Amount      *float64
	Type        *TransactionType
	Status      *TransactionStatus
	Account     *string
	Notes       *string
	Tags        []string
}

// Apply merges the patch into t and reports whether anything changed.
func (p TransactionPatch) Apply(t *Transaction) bool {
	changed := false
	if p.Date != nil {
		t.Date = *p.Date
		changed = true
	}
	if p.Description != nil {
		t.Description = *p.Description
		changed = true
	}
	if p.Category != nil {
		t.Category = *p.Category
		changed = true
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
		changed = true
	}
	if p.Type != nil {
		t.Type = *p.Type
		changed = true
	}
	if p.Status != nil {
		t.Status = *p.Status
		changed = true
	}
	if p.Account != nil {
		t.Account = *p.Account
		changed = true
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
		changed = true
	}
	if p.Tags != nil {
		t.Tags = p.Tags
		changed = true
	}
	return changed
}

func (p TransactionPatch) Empty() bool {
	return p.Date == nil && p.Description == nil && p.Category == nil && p.Amount == nil &&
		p.Type == nil && p.Status == nil && p.Account == nil && p.Notes == nil && p.Tags == nil
}

package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidAmount is returned when an amount is not a finite number or a finite
// numeric string.
var ErrInvalidAmount = errors.New("amount must be a number")

// Amount accepts either a JSON number or a numeric string.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return ErrInvalidAmount
	}
	*a = Amount(f)
	return nil
}

type CreateTransactionRequest struct {
	Date        string   `json:"date" validate:"required"`
	Description string   `json:"description" validate:"required,max=200"`
	Category    string   `json:"category" validate:"required"`
	Amount      *Amount  `json:"amount" validate:"required"`
	Type        string   `json:"type" validate:"required,oneof=income expense"`
	Status      string   `json:"status"`
	Account     string   `json:"account" validate:"required"`
	Notes       string   `json:"notes" validate:"max=1000"`
	Tags        []string `json:"tags" validate:"omitempty,dive,max=50"`
}

func (CreateTransactionRequest) FieldMessages() map[string]string {
	return map[string]string{
		"date":        "Please provide a valid date",
		"description": "Description is required and must be under 200 characters",
		"category":    "Category is required",
		"amount":      "Amount must be a non-zero number",
		"type":        "Type must be income or expense",
		"status":      "Invalid status",
		"account":     "Account is required",
		"notes":       "Notes must be under 1000 characters",
		"tags":        "Tags must be under 50 characters each",
	}
}

// UpdateTransactionRequest is a partial update; absent fields are left unchanged.
type UpdateTransactionRequest struct {
	Date        *string  `json:"date" validate:"omitempty"`
	Description *string  `json:"description" validate:"omitempty,min=1,max=200"`
	Category    *string  `json:"category" validate:"omitempty,min=1"`
	Amount      *Amount  `json:"amount"`
	Type        *string  `json:"type" validate:"omitempty,oneof=income expense"`
	Status      *string  `json:"status"`
	Account     *string  `json:"account" validate:"omitempty,min=1"`
	Notes       *string  `json:"notes" validate:"omitempty,max=1000"`
	Tags        []string `json:"tags" validate:"omitempty,dive,max=50"`
}

func (UpdateTransactionRequest) FieldMessages() map[string]string {
	return CreateTransactionRequest{}.FieldMessages()
}

// ExportRequest is the body of POST /api/transactions/export.
type ExportRequest struct {
	Format      string   `json:"format"`
	SelectedIDs []string `json:"selectedIds"`
	Fields      []string `json:"fields"`
	DateFrom    string   `json:"dateFrom"`
	DateTo      string   `json:"dateTo"`
	Category    string   `json:"category"`
	Type        string   `json:"type"`
	Status      string   `json:"status"`
	Search      string   `json:"search"`
	MinAmount   *Amount  `json:"minAmount"`
	MaxAmount   *Amount  `json:"maxAmount"`
	SortBy      string   `json:"sortBy"`
	SortOrder   string   `json:"sortOrder"`
}

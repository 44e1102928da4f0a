// Package query turns transaction filter criteria into a condition tree that can be
// evaluated against in-memory records or rendered to a SQL WHERE clause, and provides
// sorting and pagination over transaction lists.
package query

import (
	"strings"
	"time"

	"finance-dashboard/src/models"
)

// Field names understood by the condition evaluator and the SQL renderer.
const (
	FieldID          = "id"
	FieldUserID      = "userId"
	FieldDate        = "date"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldAmount      = "amount"
	FieldType        = "type"
	FieldStatus      = "status"
	FieldAccount     = "account"
)

// Filter holds the optional criteria for listing an owner's transactions.
// Zero values mean "no constraint".
type Filter struct {
	Status    string
	Category  string
	Type      string
	DateFrom  *time.Time
	DateTo    *time.Time
	MinAmount *float64
	MaxAmount *float64
	Search    string
	IDs       []string
}

// Completed returns a filter matching only settled transactions.
func Completed() Filter {
	return Filter{Status: string(models.StatusCompleted)}
}

func isAll(v string) bool {
	return v == "" || strings.EqualFold(v, "all")
}

// Condition compiles the filter into a condition tree. Leaves are AND-ed; the search
// term expands into an OR over owner id, status and category.
func (f Filter) Condition() models.Condition {
	var leaves []models.Condition

	if !isAll(f.Status) {
		leaves = append(leaves, models.Condition{Field: FieldStatus, Op: models.OpEquals, Value: string(models.NormalizeStatus(f.Status))})
	}
	if !isAll(f.Category) {
		leaves = append(leaves, models.Condition{Field: FieldCategory, Op: models.OpEquals, Value: f.Category})
	}
	if !isAll(f.Type) {
		leaves = append(leaves, models.Condition{Field: FieldType, Op: models.OpEquals, Value: strings.ToLower(f.Type)})
	}
	if f.DateFrom != nil {
		leaves = append(leaves, models.Condition{Field: FieldDate, Op: models.OpGte, Value: *f.DateFrom})
	}
	if f.DateTo != nil {
		leaves = append(leaves, models.Condition{Field: FieldDate, Op: models.OpLte, Value: *f.DateTo})
	}
	if f.MinAmount != nil {
		leaves = append(leaves, models.Condition{Field: FieldAmount, Op: models.OpGte, Value: *f.MinAmount})
	}
	if f.MaxAmount != nil {
		leaves = append(leaves, models.Condition{Field: FieldAmount, Op: models.OpLte, Value: *f.MaxAmount})
	}
	if len(f.IDs) > 0 {
		leaves = append(leaves, models.Condition{Field: FieldID, Op: models.OpIn, Value: f.IDs})
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		leaves = append(leaves, models.Condition{Or: []models.Condition{
			{Field: FieldUserID, Op: models.OpContains, Value: term},
			{Field: FieldStatus, Op: models.OpContains, Value: term},
			{Field: FieldCategory, Op: models.OpContains, Value: term},
		}})
	}

	switch len(leaves) {
	case 0:
		return models.Condition{}
	case 1:
		return leaves[0]
	default:
		return models.Condition{And: leaves}
	}
}

// Matches reports whether t satisfies every criterion of the filter.
func (f Filter) Matches(t models.Transaction) bool {
	return Evaluate(f.Condition(), t)
}

// Apply returns the transactions matching f, in their original order.
func Apply(transactions []models.Transaction, f Filter) []models.Transaction {
	cond := f.Condition()
	out := make([]models.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if Evaluate(cond, t) {
			out = append(out, t)
		}
	}
	return out
}

// Options is a complete list request: filter, ordering and window.
// A Limit of zero means no limit.
type Options struct {
	Filter Filter
	Sort   Sort
	Limit  int
	Offset int
}

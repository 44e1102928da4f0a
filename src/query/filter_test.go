package query

import (
	"testing"
	"time"

	"finance-dashboard/src/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func sample() []models.Transaction {
	return []models.Transaction{
		{ID: "t1", UserID: "user-a", Date: day(2024, 3, 1), Category: "Revenue", Amount: 1000, Type: models.TypeIncome, Status: models.StatusCompleted},
		{ID: "t2", UserID: "user-a", Date: day(2024, 3, 10), Category: "Groceries", Amount: -80, Type: models.TypeExpense, Status: models.StatusPending},
		{ID: "t3", UserID: "user-a", Date: day(2024, 3, 31), Category: "Rent", Amount: -1200, Type: models.TypeExpense, Status: models.StatusCompleted},
		{ID: "t4", UserID: "user-a", Date: day(2024, 4, 2), Category: "Groceries", Amount: -45.5, Type: models.TypeExpense, Status: models.StatusFailed},
	}
}

func ids(list []models.Transaction) []string {
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = t.ID
	}
	return out
}

func equalIDs(got []models.Transaction, want ...string) bool {
	g := ids(got)
	if len(g) != len(want) {
		return false
	}
	for i := range g {
		if g[i] != want[i] {
			return false
		}
	}
	return true
}

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filter", Filter{}, []string{"t1", "t2", "t3", "t4"}},
		{"status all", Filter{Status: "All"}, []string{"t1", "t2", "t3", "t4"}},
		{"status exact", Filter{Status: "completed"}, []string{"t1", "t3"}},
		{"legacy paid status", Filter{Status: "paid"}, []string{"t1", "t3"}},
		{"category exact", Filter{Category: "Groceries"}, []string{"t2", "t4"}},
		{"category is case sensitive", Filter{Category: "groceries"}, []string{}},
		{"category all", Filter{Category: "All"}, []string{"t1", "t2", "t3", "t4"}},
		{"type", Filter{Type: "income"}, []string{"t1"}},
		{"date range inclusive at both bounds", Filter{DateFrom: ptr(day(2024, 3, 1)), DateTo: ptr(day(2024, 3, 31))}, []string{"t1", "t2", "t3"}},
		{"amount range inclusive", Filter{MinAmount: ptr(-80.0), MaxAmount: ptr(1000.0)}, []string{"t1", "t2", "t4"}},
		{"search category case-insensitive", Filter{Search: "GROC"}, []string{"t2", "t4"}},
		{"search status", Filter{Search: "pend"}, []string{"t2"}},
		{"search owner id", Filter{Search: "user-a"}, []string{"t1", "t2", "t3", "t4"}},
		{"ids", Filter{IDs: []string{"t3", "t1"}}, []string{"t1", "t3"}},
		{"combined", Filter{Status: "completed", Search: "rent"}, []string{"t3"}},
		{"no match is empty, not nil", Filter{Category: "Travel"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(sample(), tt.filter)
			if got == nil {
				t.Fatal("Apply() returned nil, want empty slice")
			}
			if !equalIDs(got, tt.want...) {
				t.Errorf("Apply() = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestDateToIncludesWholeDay(t *testing.T) {
	to, err := ParseDate("2024-03-31", time.UTC, true)
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	list := sample()
	list[2].Date = time.Date(2024, 3, 31, 18, 30, 0, 0, time.UTC)

	got := Apply(list, Filter{DateTo: &to})
	if !equalIDs(got, "t1", "t2", "t3") {
		t.Errorf("Apply() = %v, want t1 t2 t3", ids(got))
	}
}

func TestConditionShape(t *testing.T) {
	if c := (Filter{}).Condition(); !c.IsZero() {
		t.Errorf("empty filter condition = %+v, want zero", c)
	}

	single := Filter{Status: "completed"}.Condition()
	if single.Field != FieldStatus || single.Op != models.OpEquals {
		t.Errorf("single condition = %+v", single)
	}

	search := Filter{Search: "x", Category: "Rent"}.Condition()
	if len(search.And) != 2 {
		t.Fatalf("len(And) = %d, want 2", len(search.And))
	}
	if len(search.And[1].Or) != 3 {
		t.Errorf("search should expand to 3 OR leaves, got %d", len(search.And[1].Or))
	}
}

func TestEvaluateUnknownField(t *testing.T) {
	cond := models.Condition{Field: "merchant", Op: models.OpEquals, Value: "x"}
	if Evaluate(cond, sample()[0]) {
		t.Error("Evaluate() on unknown field = true, want false")
	}
	cond = models.Condition{Field: FieldCategory, Op: "regex", Value: "x"}
	if Evaluate(cond, sample()[0]) {
		t.Error("Evaluate() with unknown operator = true, want false")
	}
}

func TestEvaluateInAcceptsDecodedJSON(t *testing.T) {
	cond := models.Condition{Field: FieldID, Op: models.OpIn, Value: []interface{}{"t2", "t9"}}
	if !Evaluate(cond, sample()[1]) {
		t.Error("Evaluate() = false, want true for id in list")
	}
}

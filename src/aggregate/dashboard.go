// Package aggregate computes the dashboard summary and the monthly income/expense
// series. Only completed transactions contribute to monetary figures; sums are taken
// with arbitrary-precision decimals and rounded to cents on output.
package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"finance-dashboard/src/models"
)

const (
	TopCategories = 10
	RecentCount   = 5
)

var hundred = decimal.NewFromInt(100)

// MonthWindow holds the boundaries used by the summary: the start of the current month
// and the inclusive range of the previous month.
type MonthWindow struct {
	CurrentStart  time.Time
	PreviousStart time.Time
	PreviousEnd   time.Time
}

// MonthWindowAt computes the month boundaries of asOf in loc. PreviousEnd is the last
// instant of the previous month.
func MonthWindowAt(asOf time.Time, loc *time.Location) MonthWindow {
	if loc == nil {
		loc = time.UTC
	}
	local := asOf.In(loc)
	current := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return MonthWindow{
		CurrentStart:  current,
		PreviousStart: current.AddDate(0, -1, 0),
		PreviousEnd:   current.Add(-time.Nanosecond),
	}
}

// Inputs is everything the summary needs, already fetched from the store.
// Current and Previous must contain completed transactions only; Recent must be
// ordered newest first.
type Inputs struct {
	Current        []models.Transaction
	Previous       []models.Transaction
	CompletedCount int
	Recent         []models.Transaction
}

// Stats builds the dashboard summary from pre-selected transaction sets.
func Stats(in Inputs) models.DashboardStats {
	income, expenses := totals(in.Current)
	prevIncome, _ := totals(in.Previous)

	recent := in.Recent
	if len(recent) > RecentCount {
		recent = recent[:RecentCount]
	}
	if recent == nil {
		recent = []models.Transaction{}
	}

	return models.DashboardStats{
		TotalBalance:       round(income.Sub(expenses)),
		MonthlyIncome:      round(income),
		MonthlyExpenses:    round(expenses),
		TransactionCount:   in.CompletedCount,
		MonthlyGrowth:      round(Growth(income, prevIncome)),
		CategoryBreakdown:  Breakdown(in.Current),
		RecentTransactions: recent,
	}
}

// StatsFromAll derives the summary from an owner's full transaction list. It selects
// the same sets the store queries select, so in-memory and SQL backends agree.
func StatsFromAll(all []models.Transaction, asOf time.Time, loc *time.Location) models.DashboardStats {
	w := MonthWindowAt(asOf, loc)
	var in Inputs
	var completed []models.Transaction
	for _, t := range all {
		if !t.IsCompleted() {
			continue
		}
		completed = append(completed, t)
		switch {
		case !t.Date.Before(w.CurrentStart):
			in.Current = append(in.Current, t)
		case !t.Date.Before(w.PreviousStart) && !t.Date.After(w.PreviousEnd):
			in.Previous = append(in.Previous, t)
		}
	}
	in.CompletedCount = len(completed)
	in.Recent = MostRecent(completed, RecentCount)
	return Stats(in)
}

// MostRecent returns up to n transactions ordered by date descending, newest
// creation first on equal dates. The input is not modified.
func MostRecent(list []models.Transaction, n int) []models.Transaction {
	sorted := make([]models.Transaction, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.After(sorted[j].Date)
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Growth is the month-over-month income change in percent, or zero when there was
// no income in the previous month.
func Growth(income, prevIncome decimal.Decimal) decimal.Decimal {
	if !prevIncome.IsPositive() {
		return decimal.Zero
	}
	return income.Sub(prevIncome).Div(prevIncome).Mul(hundred)
}

// Breakdown groups transactions by category on absolute amount, keeps the largest
// TopCategories and expresses each as a share of the kept total.
func Breakdown(list []models.Transaction) []models.CategoryBreakdown {
	type bucket struct {
		amount decimal.Decimal
		count  int
	}
	buckets := make(map[string]*bucket)
	for _, t := range list {
		b, ok := buckets[t.Category]
		if !ok {
			b = &bucket{}
			buckets[t.Category] = b
		}
		b.amount = b.amount.Add(decimal.NewFromFloat(t.Amount).Abs())
		b.count++
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ai, aj := buckets[names[i]].amount, buckets[names[j]].amount
		if !ai.Equal(aj) {
			return ai.GreaterThan(aj)
		}
		return names[i] < names[j]
	})
	if len(names) > TopCategories {
		names = names[:TopCategories]
	}

	total := decimal.Zero
	for _, name := range names {
		total = total.Add(buckets[name].amount)
	}

	out := make([]models.CategoryBreakdown, 0, len(names))
	for _, name := range names {
		b := buckets[name]
		pct := decimal.Zero
		if !total.IsZero() {
			pct = b.amount.Div(total).Mul(hundred)
		}
		out = append(out, models.CategoryBreakdown{
			Category:   name,
			Amount:     round(b.amount),
			Count:      b.count,
			Percentage: round(pct),
		})
	}
	return out
}

// totals returns income and the absolute value of expenses for list.
func totals(list []models.Transaction) (income, expenses decimal.Decimal) {
	for _, t := range list {
		amount := decimal.NewFromFloat(t.Amount)
		switch t.Type {
		case models.TypeIncome:
			income = income.Add(amount)
		case models.TypeExpense:
			expenses = expenses.Add(amount)
		}
	}
	return income, expenses.Abs()
}

func round(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

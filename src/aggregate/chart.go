package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"finance-dashboard/src/models"
)

const (
	DefaultChartMonths = 6
	MaxChartMonths     = 60
)

// ChartWindow returns the inclusive [from, to] range covered by a chart of the last
// months calendar months ending at asOf.
func ChartWindow(asOf time.Time, months int, loc *time.Location) (from, to time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	to = asOf.In(loc)
	return to.AddDate(0, -months, 0), to
}

type monthKey struct {
	year  int
	month time.Month
}

func (k monthKey) before(o monthKey) bool {
	if k.year != o.year {
		return k.year < o.year
	}
	return k.month < o.month
}

func (k monthKey) next() monthKey {
	if k.month == time.December {
		return monthKey{k.year + 1, time.January}
	}
	return monthKey{k.year, k.month + 1}
}

func (k monthKey) minus(n int) monthKey {
	d := time.Date(k.year, k.month-time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return monthKey{d.Year(), d.Month()}
}

// Chart buckets completed transactions dated within [from, to] by calendar month in
// loc and returns the points in ascending order. With fillMonths zero, months without
// data are omitted. Otherwise exactly fillMonths points are returned, ending with the
// month of to, zero where a month has no data.
func Chart(list []models.Transaction, from, to time.Time, loc *time.Location, fillMonths int) []models.MonthlyChartPoint {
	if loc == nil {
		loc = time.UTC
	}
	type sums struct{ income, expenses decimal.Decimal }
	buckets := make(map[monthKey]*sums)

	for _, t := range list {
		if !t.IsCompleted() || t.Date.Before(from) || t.Date.After(to) {
			continue
		}
		d := t.Date.In(loc)
		key := monthKey{d.Year(), d.Month()}
		s, ok := buckets[key]
		if !ok {
			s = &sums{}
			buckets[key] = s
		}
		amount := decimal.NewFromFloat(t.Amount)
		switch t.Type {
		case models.TypeIncome:
			s.income = s.income.Add(amount)
		case models.TypeExpense:
			s.expenses = s.expenses.Add(amount.Abs())
		}
	}

	var keys []monthKey
	if fillMonths > 0 {
		l := to.In(loc)
		last := monthKey{l.Year(), l.Month()}
		for k := last.minus(fillMonths - 1); !last.before(k); k = k.next() {
			keys = append(keys, k)
		}
	} else {
		for k := range buckets {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].before(keys[j]) })
	}

	points := make([]models.MonthlyChartPoint, 0, len(keys))
	for _, k := range keys {
		p := models.MonthlyChartPoint{Month: k.month.String()[:3], Year: k.year}
		if s, ok := buckets[k]; ok {
			p.Income = round(s.income)
			p.Expenses = round(s.expenses)
		}
		points = append(points, p)
	}
	return points
}

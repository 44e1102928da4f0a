package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"finance-dashboard/src/aggregate"
	"finance-dashboard/src/db"
	"finance-dashboard/src/logging"
	"finance-dashboard/src/models"
	"finance-dashboard/src/query"
	"finance-dashboard/src/store"
)

const summaryView = "summary"

func chartView(months int, fill bool) string {
	return "chart:" + strconv.Itoa(months) + ":" + strconv.FormatBool(fill)
}

// DashboardService computes the summary and chart for one owner. Results are cached
// per owner until the owner's transactions change or the TTL passes.
type DashboardService struct {
	store  store.TransactionStore
	cache  *db.DashboardCache
	group  singleflight.Group
	loc    *time.Location
	now    func() time.Time
	logger *logging.Logger
}

func NewDashboardService(st store.TransactionStore, cache *db.DashboardCache, loc *time.Location, logger *logging.Logger) *DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardService{
		store:  st,
		cache:  cache,
		loc:    loc,
		now:    time.Now,
		logger: logger.WithComponent(logging.ComponentDashboard),
	}
}

func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	s.now = now
	return s
}

// cached serves view from the cache or computes it once for all concurrent callers.
// Callers that read different generations never share a computation, and a result
// that was overtaken by an invalidation is returned but not stored. The shared
// computation ignores the cancellation of whichever caller started it.
func (s *DashboardService) cached(ctx context.Context, ownerID, view string, compute func(context.Context) (interface{}, error)) (interface{}, error) {
	if v, ok := s.cache.Get(ownerID, view); ok {
		return v, nil
	}
	gen := s.cache.Generation(ownerID)
	key := ownerID + "|" + view + "|" + strconv.FormatUint(gen, 10)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		v, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		s.cache.SetIfCurrent(ownerID, view, v, gen)
		return v, nil
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Summary returns the dashboard statistics as of now.
func (s *DashboardService) Summary(ctx context.Context, ownerID string) (models.DashboardStats, error) {
	v, err := s.cached(ctx, ownerID, summaryView, func(ctx context.Context) (interface{}, error) {
		return s.computeSummary(ctx, ownerID, s.now())
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to compute dashboard summary",
			logging.FieldUserID, ownerID,
			logging.FieldError, err)
		return models.DashboardStats{}, err
	}
	return v.(models.DashboardStats), nil
}

// computeSummary runs the four independent store reads concurrently.
func (s *DashboardService) computeSummary(ctx context.Context, ownerID string, asOf time.Time) (models.DashboardStats, error) {
	w := aggregate.MonthWindowAt(asOf, s.loc)
	var in aggregate.Inputs

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f := query.Completed()
		f.DateFrom = &w.CurrentStart
		list, _, err := s.store.ListTransactions(ctx, ownerID, query.Options{Filter: f, Sort: query.DefaultSort})
		if err != nil {
			return fmt.Errorf("current month: %w", err)
		}
		in.Current = list
		return nil
	})
	g.Go(func() error {
		f := query.Completed()
		f.DateFrom, f.DateTo = &w.PreviousStart, &w.PreviousEnd
		list, _, err := s.store.ListTransactions(ctx, ownerID, query.Options{Filter: f, Sort: query.DefaultSort})
		if err != nil {
			return fmt.Errorf("previous month: %w", err)
		}
		in.Previous = list
		return nil
	})
	g.Go(func() error {
		n, err := s.store.CountTransactions(ctx, ownerID, query.Completed())
		if err != nil {
			return fmt.Errorf("count completed: %w", err)
		}
		in.CompletedCount = n
		return nil
	})
	g.Go(func() error {
		list, _, err := s.store.ListTransactions(ctx, ownerID, query.Options{
			Filter: query.Completed(),
			Sort:   query.Sort{Field: query.FieldDate, Direction: query.Desc},
			Limit:  aggregate.RecentCount,
		})
		if err != nil {
			return fmt.Errorf("recent transactions: %w", err)
		}
		in.Recent = aggregate.MostRecent(list, aggregate.RecentCount)
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.DashboardStats{}, fmt.Errorf("dashboard summary: %w", err)
	}
	return aggregate.Stats(in), nil
}

// Chart returns monthly income and expense totals for the last months calendar months.
// The caller validates months.
func (s *DashboardService) Chart(ctx context.Context, ownerID string, months int, fill bool) ([]models.MonthlyChartPoint, error) {
	v, err := s.cached(ctx, ownerID, chartView(months, fill), func(ctx context.Context) (interface{}, error) {
		from, to := aggregate.ChartWindow(s.now(), months, s.loc)
		f := query.Completed()
		f.DateFrom, f.DateTo = &from, &to
		list, _, err := s.store.ListTransactions(ctx, ownerID, query.Options{Filter: f, Sort: query.Sort{Field: query.FieldDate, Direction: query.Asc}})
		if err != nil {
			return nil, fmt.Errorf("chart transactions: %w", err)
		}
		fillMonths := 0
		if fill {
			fillMonths = months
		}
		return aggregate.Chart(list, from, to, s.loc, fillMonths), nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to compute dashboard chart",
			logging.FieldUserID, ownerID,
			logging.FieldError, err)
		return nil, err
	}
	return v.([]models.MonthlyChartPoint), nil
}

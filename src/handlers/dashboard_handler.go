package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"finance-dashboard/src/aggregate"
	"finance-dashboard/src/apperrors"
	"finance-dashboard/src/services"
)

func GetDashboardSummary(ds *services.DashboardService, rp Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := ds.Summary(r.Context(), currentUser(r).ID)
		if err != nil {
			rp.Error(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, "Dashboard stats retrieved", stats)
	}
}

// parseChartParams reads months (1..60, default 6) and fill (default false).
func parseChartParams(r *http.Request) (int, bool, error) {
	months := aggregate.DefaultChartMonths
	if v := strings.TrimSpace(r.URL.Query().Get("months")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > aggregate.MaxChartMonths {
			return 0, false, apperrors.Validation("Invalid query parameters", apperrors.FieldError{
				Field:   "months",
				Message: "Months must be an integer between 1 and 60",
			})
		}
		months = n
	}

	fill := false
	if v := strings.TrimSpace(r.URL.Query().Get("fill")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return 0, false, apperrors.Validation("Invalid query parameters", apperrors.FieldError{
				Field:   "fill",
				Message: "Fill must be true or false",
			})
		}
		fill = b
	}
	return months, fill, nil
}

func GetChartData(ds *services.DashboardService, rp Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		months, fill, err := parseChartParams(r)
		if err != nil {
			rp.Error(w, r, err)
			return
		}

		points, err := ds.Chart(r.Context(), currentUser(r).ID, months, fill)
		if err != nil {
			rp.Error(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, "Chart data retrieved", points)
	}
}

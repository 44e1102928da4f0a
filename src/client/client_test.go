package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"finance-dashboard/src/models"
)

func writeEnvelope(w http.ResponseWriter, status int, env map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret-pass" {
			writeEnvelope(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Invalid credentials"})
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"token": "tok-1", "user": map[string]string{"email": req.Email}},
		})
	})
	mux.HandleFunc("GET /api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			writeEnvelope(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Access token is required"})
			return
		}
		q := r.URL.Query()
		if q.Get("category") != "Food" || q.Get("minAmount") != "-12.5" || q.Get("page") != "2" || q.Has("search") {
			writeEnvelope(w, http.StatusBadRequest, map[string]interface{}{
				"success": false,
				"message": "Invalid query parameters",
				"errors":  []map[string]string{{"field": "query", "message": r.URL.RawQuery}},
			})
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"transactions": []map[string]interface{}{{"id": "t-1", "category": "Food", "amount": -20}},
				"pagination":   map[string]interface{}{"currentPage": 2, "totalPages": 2, "totalItems": 11},
			},
		})
	})
	mux.HandleFunc("GET /api/dashboard/chart-data", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("months") != "3" || r.URL.Query().Get("fill") != "true" {
			writeEnvelope(w, http.StatusBadRequest, map[string]interface{}{"success": false, "message": "bad chart query"})
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    []map[string]interface{}{{"month": "Mar", "year": 2024, "income": 10, "expenses": 4}},
		})
	})
	mux.HandleFunc("POST /api/transactions/export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions-2024-03-31.csv"`)
		_, _ = w.Write([]byte("Date,Amount\n3/5/2024,-900\n"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientLoginAndList(t *testing.T) {
	srv := newServer(t)
	c := New(srv.URL + "/")
	ctx := context.Background()

	_, err := c.Login(ctx, "user1@example.com", "wrong")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized || apiErr.Message != "Invalid credentials" {
		t.Fatalf("Login(wrong) error = %v", err)
	}

	resp, err := c.Login(ctx, "user1@example.com", "secret-pass")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.Token != "tok-1" || c.Token != "tok-1" || resp.User.Email != "user1@example.com" {
		t.Errorf("Login() = %+v, client token %q", resp, c.Token)
	}

	minAmount := -12.5
	list, err := c.Transactions(ctx, Filter{Category: "Food", MinAmount: &minAmount, Page: 2})
	if err != nil {
		t.Fatalf("Transactions() error = %v", err)
	}
	if len(list.Transactions) != 1 || list.Transactions[0].Amount != -20 {
		t.Errorf("Transactions() = %+v", list.Transactions)
	}
	if list.Pagination == nil || list.Pagination.TotalItems != 11 || list.Pagination.CurrentPage != 2 {
		t.Errorf("Pagination = %+v", list.Pagination)
	}
}

func TestClientChartAndExport(t *testing.T) {
	srv := newServer(t)
	c := New(srv.URL)
	ctx := context.Background()

	points, err := c.Chart(ctx, 3, true)
	if err != nil {
		t.Fatalf("Chart() error = %v", err)
	}
	if len(points) != 1 || points[0].Month != "Mar" || points[0].Expenses != 4 {
		t.Errorf("Chart() = %+v", points)
	}

	_, err = c.Chart(ctx, 0, false)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Errorf("Chart(0) error = %v, want 400", err)
	}

	d, err := c.Export(ctx, models.ExportRequest{Format: "csv"})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if d.Filename != "transactions-2024-03-31.csv" || d.ContentType != "text/csv" || string(d.Body) != "Date,Amount\n3/5/2024,-900\n" {
		t.Errorf("Export() = %+v", d)
	}
}

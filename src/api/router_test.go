package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finance-dashboard/src/auth"
	"finance-dashboard/src/config"
	"finance-dashboard/src/db"
	"finance-dashboard/src/export"
	"finance-dashboard/src/importer"
	"finance-dashboard/src/logging"
	"finance-dashboard/src/models"
	"finance-dashboard/src/services"
	"finance-dashboard/src/store"
)

type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  []map[string]string `json:"errors"`
}

type fakePlaid struct {
	page *importer.Page
	err  error
}

func (f fakePlaid) Fetch(context.Context, string, string) (*importer.Page, error) {
	return f.page, f.err
}

type testServer struct {
	handler http.Handler
	users   *services.UserService
}

func newTestServer(t *testing.T, plaid *fakePlaid) *testServer {
	t.Helper()
	st := store.NewMemory()
	logger := logging.Discard()
	cfg := config.Config{Env: config.EnvTest, FrontendURLs: []string{"http://localhost:3000"}, Location: time.UTC}

	cache, err := db.NewDashboardCache(0)
	if err != nil {
		t.Fatalf("NewDashboardCache() error = %v", err)
	}
	tokens := auth.NewTokenService("router-test-secret-1234", "iss", "aud", time.Hour)
	users := services.NewUserService(st, tokens, logger)
	deps := Deps{
		Config:       cfg,
		UserStore:    st,
		Tokens:       tokens,
		Transactions: services.NewTransactionService(st, cache, nil, export.NewFormatter(export.DefaultDateLayout, time.UTC), time.UTC, logger),
		Dashboard:    services.NewDashboardService(st, cache, time.UTC, logger),
		Users:        users,
		Cache:        cache,
		Logger:       logger,
	}
	if plaid != nil {
		deps.Plaid = plaid
	}
	return &testServer{handler: NewRouter(deps), users: users}
}

func (s *testServer) user(t *testing.T, email string, role models.Role) string {
	t.Helper()
	ctx := context.Background()
	if _, err := s.users.Create(ctx, models.CreateUserRequest{Email: email, Password: "Str0ng!Pass", FirstName: "Test", LastName: "User", Role: role}); err != nil {
		t.Fatalf("Create(%s) error = %v", email, err)
	}
	resp, err := s.users.Login(ctx, models.LoginRequest{Email: email, Password: "Str0ng!Pass"})
	if err != nil {
		t.Fatalf("Login(%s) error = %v", email, err)
	}
	return resp.Token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func TestHealthAndFallbacks(t *testing.T) {
	s := newTestServer(t, nil)

	rec, _ := s.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"environment":"test"`) {
		t.Errorf("GET /health = %d %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID missing")
	}

	rec, env := s.do(t, http.MethodGet, "/nope", "", nil)
	if rec.Code != http.StatusNotFound || env.Message != "Not found - /nope" {
		t.Errorf("GET /nope = %d %q", rec.Code, env.Message)
	}

	rec, env = s.do(t, http.MethodDelete, "/health", "", nil)
	if rec.Code != http.StatusMethodNotAllowed || env.Success {
		t.Errorf("DELETE /health = %d %+v", rec.Code, env)
	}

	rec, env = s.do(t, http.MethodGet, "/api/transactions", "", nil)
	if rec.Code != http.StatusUnauthorized || env.Message != "Access token is required" {
		t.Errorf("GET /api/transactions without token = %d %q", rec.Code, env.Message)
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, nil)
	s.user(t, "user1@example.com", models.RoleUser)

	rec, env := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "user1@example.com", "password": "Str0ng!Pass"})
	if rec.Code != http.StatusOK || env.Message != "Login successful" {
		t.Fatalf("login = %d %+v", rec.Code, env)
	}
	var data models.LoginResponse
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" || data.User.Email != "user1@example.com" {
		t.Errorf("login data = %s (%v)", env.Data, err)
	}
	if strings.Contains(string(env.Data), "password") {
		t.Error("login response leaks the password hash")
	}

	rec, env = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "user1@example.com", "password": "wrong-password"})
	if rec.Code != http.StatusUnauthorized || env.Message != "Invalid credentials" {
		t.Errorf("bad password = %d %q", rec.Code, env.Message)
	}

	rec, env = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "nope", "password": "1"})
	if rec.Code != http.StatusBadRequest || env.Message != "Validation failed" || len(env.Errors) != 2 {
		t.Errorf("invalid login = %d %+v", rec.Code, env)
	}

	rec, env = s.do(t, http.MethodPost, "/api/auth/refresh", data.Token, nil)
	if rec.Code != http.StatusOK || env.Message != "Token refreshed successfully" {
		t.Errorf("refresh = %d %q", rec.Code, env.Message)
	}
	rec, _ = s.do(t, http.MethodGet, "/api/auth/profile", data.Token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("profile = %d", rec.Code)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	owner := s.user(t, "owner@example.com", models.RoleUser)
	stranger := s.user(t, "stranger@example.com", models.RoleUser)

	rec, env := s.do(t, http.MethodPost, "/api/transactions", owner, map[string]interface{}{
		"date": "2024-03-05", "description": "Salary", "category": "Revenue",
		"amount": "1000.50", "type": "income", "account": "Checking",
	})
	if rec.Code != http.StatusCreated || env.Message != "Transaction created" {
		t.Fatalf("create = %d %+v", rec.Code, env)
	}
	var created models.Transaction
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.Amount != 1000.5 || created.Status != models.StatusCompleted {
		t.Errorf("created = %+v", created)
	}

	rec, env = s.do(t, http.MethodPost, "/api/transactions", owner, map[string]interface{}{
		"date": "yesterday", "description": "", "category": "Food", "amount": 0, "type": "gift", "account": "Card",
	})
	if rec.Code != http.StatusBadRequest || len(env.Errors) != 4 {
		t.Errorf("invalid create = %d %+v", rec.Code, env.Errors)
	}

	for _, bad := range []interface{}{"lots", "NaN", "-Inf", 0.001} {
		rec, env = s.do(t, http.MethodPost, "/api/transactions", owner, map[string]interface{}{
			"date": "2024-03-05", "description": "x", "category": "Food", "amount": bad, "type": "expense", "account": "Card",
		})
		if rec.Code != http.StatusBadRequest || len(env.Errors) != 1 || env.Errors[0]["field"] != "amount" {
			t.Errorf("amount %v = %d %+v", bad, rec.Code, env.Errors)
		}
	}

	path := "/api/transactions/" + created.ID
	if rec, _ := s.do(t, http.MethodGet, path, stranger, nil); rec.Code != http.StatusNotFound {
		t.Errorf("stranger get = %d, want 404", rec.Code)
	}
	if rec, _ := s.do(t, http.MethodDelete, path, stranger, nil); rec.Code != http.StatusNotFound {
		t.Errorf("stranger delete = %d, want 404", rec.Code)
	}

	rec, env = s.do(t, http.MethodPut, path, owner, map[string]interface{}{"status": "pending", "notes": "check"})
	if rec.Code != http.StatusOK || env.Message != "Transaction updated" {
		t.Fatalf("update = %d %+v", rec.Code, env)
	}
	var updated models.Transaction
	_ = json.Unmarshal(env.Data, &updated)
	if updated.Status != models.StatusPending || updated.Notes != "check" || updated.Description != "Salary" {
		t.Errorf("updated = %+v", updated)
	}

	rec, env = s.do(t, http.MethodGet, "/api/transactions?status=pending&page=1&limit=5", owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list = %d %+v", rec.Code, env)
	}
	var list struct {
		Transactions []models.Transaction `json:"transactions"`
		Pagination   *struct {
			TotalItems int `json:"totalItems"`
			TotalPages int `json:"totalPages"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Transactions) != 1 || list.Pagination == nil || list.Pagination.TotalItems != 1 || list.Pagination.TotalPages != 1 {
		t.Errorf("list = %+v", list)
	}

	rec, _ = s.do(t, http.MethodGet, "/api/transactions?limit=500", owner, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("list limit=500 = %d, want 400", rec.Code)
	}

	rec, env = s.do(t, http.MethodGet, "/api/transactions/categories", owner, nil)
	if rec.Code != http.StatusOK || string(env.Data) != `["Revenue"]` {
		t.Errorf("categories = %d %s", rec.Code, env.Data)
	}

	rec, env = s.do(t, http.MethodDelete, path, owner, nil)
	if rec.Code != http.StatusOK || env.Message != "Transaction deleted" {
		t.Errorf("delete = %d %q", rec.Code, env.Message)
	}
	if rec, _ := s.do(t, http.MethodGet, path, owner, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}
}

func TestExportEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	owner := s.user(t, "owner@example.com", models.RoleUser)

	rec, env := s.do(t, http.MethodPost, "/api/transactions/export", owner, map[string]string{"format": "csv"})
	if rec.Code != http.StatusBadRequest || env.Message != "No transactions found for export" {
		t.Errorf("empty export = %d %q", rec.Code, env.Message)
	}

	s.do(t, http.MethodPost, "/api/transactions", owner, map[string]interface{}{
		"date": "2024-03-05", "description": "Rent", "category": "Housing", "amount": -900, "type": "expense", "account": "Checking",
	})
	rec, _ = s.do(t, http.MethodPost, "/api/transactions/export", owner, map[string]interface{}{"format": "csv", "fields": []string{"date", "amount"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("export = %d %s", rec.Code, rec.Body)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, `attachment; filename="transactions-`) || !strings.HasSuffix(cd, `.csv"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if got := rec.Body.String(); got != "Date,Amount\n3/5/2024,-900\n" {
		t.Errorf("body = %q", got)
	}
}

func TestDashboardEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	owner := s.user(t, "owner@example.com", models.RoleUser)

	rec, env := s.do(t, http.MethodGet, "/api/dashboard/summary", owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary = %d %+v", rec.Code, env)
	}
	var stats models.DashboardStats
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.CategoryBreakdown == nil || stats.RecentTransactions == nil {
		t.Errorf("empty summary has null arrays: %s", env.Data)
	}

	for _, months := range []string{"0", "61", "six"} {
		rec, env := s.do(t, http.MethodGet, "/api/dashboard/chart-data?months="+months, owner, nil)
		if rec.Code != http.StatusBadRequest || len(env.Errors) != 1 || env.Errors[0]["field"] != "months" {
			t.Errorf("chart months=%s = %d %+v", months, rec.Code, env)
		}
	}

	rec, env = s.do(t, http.MethodGet, "/api/dashboard/chart-data?months=3&fill=true", owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("chart = %d", rec.Code)
	}
	var points []models.MonthlyChartPoint
	if err := json.Unmarshal(env.Data, &points); err != nil || len(points) != 3 {
		t.Fatalf("filled chart = %s (%v), want exactly 3 points", env.Data, err)
	}
	for _, p := range points {
		if p.Income != 0 || p.Expenses != 0 {
			t.Errorf("point %+v, want zero totals", p)
		}
	}
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	user := s.user(t, "user@example.com", models.RoleUser)
	admin := s.user(t, "admin@example.com", models.RoleAdmin)

	rec, env := s.do(t, http.MethodGet, "/api/admin/users", user, nil)
	if rec.Code != http.StatusForbidden || env.Message != "Insufficient permissions" {
		t.Errorf("user on admin route = %d %q", rec.Code, env.Message)
	}

	rec, env = s.do(t, http.MethodGet, "/api/admin/users", admin, nil)
	var users []models.User
	if rec.Code != http.StatusOK || json.Unmarshal(env.Data, &users) != nil || len(users) != 2 {
		t.Errorf("admin list users = %d %s", rec.Code, env.Data)
	}

	rec, env = s.do(t, http.MethodPost, "/api/admin/users", admin, map[string]string{
		"email": "user@example.com", "password": "Str0ng!Pass", "firstName": "Dup", "lastName": "User",
	})
	if rec.Code != http.StatusBadRequest || env.Message != "User already exists with this email" {
		t.Errorf("duplicate create = %d %q", rec.Code, env.Message)
	}

	var target models.User
	for _, u := range users {
		if u.Email == "user@example.com" {
			target = u
		}
	}
	rec, _ = s.do(t, http.MethodPost, "/api/admin/users/"+target.ID+"/deactivate", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivate = %d", rec.Code)
	}
	rec, env = s.do(t, http.MethodGet, "/api/transactions", user, nil)
	if rec.Code != http.StatusUnauthorized || env.Message != "User not found or inactive" {
		t.Errorf("deactivated user request = %d %q", rec.Code, env.Message)
	}

	rec, _ = s.do(t, http.MethodPost, "/api/admin/cache/clear", admin, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("cache clear = %d", rec.Code)
	}
}

func TestPlaidImport(t *testing.T) {
	tx, _ := importer.FromPlaid(importer.PlaidRecord{ID: "p-1", Name: "Coffee", Date: "2024-03-05", Amount: 4.5}, time.UTC)
	fake := &fakePlaid{page: &importer.Page{Transactions: []models.Transaction{tx}, Skipped: 1, NextCursor: "c2", HasMore: true}}
	s := newTestServer(t, fake)
	owner := s.user(t, "owner@example.com", models.RoleUser)

	for _, want := range []int{1, 0} {
		rec, env := s.do(t, http.MethodPost, "/api/transactions/import/plaid", owner, map[string]string{"accessToken": "access-sandbox"})
		if rec.Code != http.StatusOK {
			t.Fatalf("import = %d %+v", rec.Code, env)
		}
		var res models.PlaidImportResult
		if err := json.Unmarshal(env.Data, &res); err != nil {
			t.Fatalf("decode result: %v", err)
		}
		if res.Imported != want || res.NextCursor != "c2" || !res.HasMore {
			t.Errorf("result = %+v, want %d imported", res, want)
		}
	}

	rec, env := s.do(t, http.MethodPost, "/api/transactions/import/plaid", owner, map[string]string{})
	if rec.Code != http.StatusBadRequest || len(env.Errors) != 1 || env.Errors[0]["field"] != "accessToken" {
		t.Errorf("missing token = %d %+v", rec.Code, env)
	}

	fake.err = errors.New("plaid down")
	rec, env = s.do(t, http.MethodPost, "/api/transactions/import/plaid", owner, map[string]string{"accessToken": "access-sandbox"})
	if rec.Code != http.StatusInternalServerError || env.Message != "Internal server error" {
		t.Errorf("plaid failure = %d %q", rec.Code, env.Message)
	}

	plain := newTestServer(t, nil)
	token := plain.user(t, "owner@example.com", models.RoleUser)
	if rec, _ := plain.do(t, http.MethodPost, "/api/transactions/import/plaid", token, map[string]string{"accessToken": "x"}); rec.Code == http.StatusOK {
		t.Error("plaid route served without a configured client")
	}
}

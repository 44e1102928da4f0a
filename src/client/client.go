// Package client is a typed Go client for the dashboard API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finance-dashboard/src/apperrors"
	"finance-dashboard/src/models"
	"finance-dashboard/src/query"
)

// Client calls the API at BaseURL. Token is sent as a bearer token when set; Login
// sets it.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status  int
	Message string
	Errors  []apperrors.FieldError
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    json.RawMessage        `json:"data"`
	Errors  []apperrors.FieldError `json:"errors"`
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) send(ctx context.Context, method, path string, params url.Values, body interface{}) (*http.Response, error) {
	u := c.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err == nil {
		apiErr.Message = env.Message
		apiErr.Errors = env.Errors
	}
	return apiErr
}

// call sends a JSON request and decodes the envelope's data into out.
func (c *Client) call(ctx context.Context, method, path string, params url.Values, body, out interface{}) error {
	resp, err := c.send(ctx, method, path, params, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	var out models.LoginResponse
	err := c.call(ctx, http.MethodPost, "/api/auth/login", nil, models.LoginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	c.Token = out.Token
	return &out, nil
}

// Filter holds the list parameters of GET /api/transactions. Zero values are omitted.
type Filter struct {
	Search    string
	Category  string
	Type      string
	Status    string
	DateFrom  string
	DateTo    string
	MinAmount *float64
	MaxAmount *float64
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

func (f Filter) values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("search", f.Search)
	set("category", f.Category)
	set("type", f.Type)
	set("status", f.Status)
	set("dateFrom", f.DateFrom)
	set("dateTo", f.DateTo)
	set("sortBy", f.SortBy)
	set("sortOrder", f.SortOrder)
	if f.MinAmount != nil {
		v.Set("minAmount", strconv.FormatFloat(*f.MinAmount, 'f', -1, 64))
	}
	if f.MaxAmount != nil {
		v.Set("maxAmount", strconv.FormatFloat(*f.MaxAmount, 'f', -1, 64))
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	return v
}

type TransactionList struct {
	Transactions []models.Transaction `json:"transactions"`
	Pagination   *query.Pagination    `json:"pagination,omitempty"`
}

func (c *Client) Transactions(ctx context.Context, f Filter) (*TransactionList, error) {
	var out TransactionList
	if err := c.call(ctx, http.MethodGet, "/api/transactions", f.values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Summary(ctx context.Context) (*models.DashboardStats, error) {
	var out models.DashboardStats
	if err := c.call(ctx, http.MethodGet, "/api/dashboard/summary", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Chart fetches monthly totals. A months value of zero uses the server default.
func (c *Client) Chart(ctx context.Context, months int, fill bool) ([]models.MonthlyChartPoint, error) {
	params := url.Values{}
	if months > 0 {
		params.Set("months", strconv.Itoa(months))
	}
	if fill {
		params.Set("fill", "true")
	}
	var out []models.MonthlyChartPoint
	if err := c.call(ctx, http.MethodGet, "/api/dashboard/chart-data", params, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Download is an export attachment.
type Download struct {
	Filename    string
	ContentType string
	Body        []byte
}

func (c *Client) Export(ctx context.Context, req models.ExportRequest) (*Download, error) {
	resp, err := c.send(ctx, http.MethodPost, "/api/transactions/export", nil, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	d := &Download{Body: body}
	if ct, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil {
		d.ContentType = ct
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		d.Filename = params["filename"]
	}
	return d, nil
}

// Package services holds the use cases behind the HTTP handlers. Services validate
// input, call the store, keep the dashboard cache coherent and announce changes.
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finance-dashboard/src/apperrors"
	"finance-dashboard/src/db"
	"finance-dashboard/src/events"
	"finance-dashboard/src/export"
	"finance-dashboard/src/logging"
	"finance-dashboard/src/models"
	"finance-dashboard/src/query"
	"finance-dashboard/src/store"
	"finance-dashboard/src/util"
)

const validationFailed = "Validation failed"

// storeError maps store sentinels onto the client-facing taxonomy.
func storeError(op, notFound string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperrors.Wrap(apperrors.KindNotFound, notFound, err)
	case errors.Is(err, store.ErrDuplicate):
		return apperrors.Conflict("Duplicate field value entered", err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// amountOf rounds a to cents, the precision of the stored column, and reports whether
// the result is finite and non-zero.
func amountOf(a models.Amount) (float64, bool) {
	f := float64(a)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	v := decimal.NewFromFloat(f).Round(2).InexactFloat64()
	return v, v != 0
}

// fieldErrors collects at most one message per field.
type fieldErrors struct {
	list []apperrors.FieldError
	seen map[string]bool
}

func (f *fieldErrors) add(field, message string) {
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	if f.seen[field] {
		return
	}
	f.seen[field] = true
	f.list = append(f.list, apperrors.FieldError{Field: field, Message: message})
}

func (f *fieldErrors) addAll(errs []apperrors.FieldError) {
	for _, e := range errs {
		f.add(e.Field, e.Message)
	}
}

func (f *fieldErrors) err() error {
	if len(f.list) == 0 {
		return nil
	}
	return apperrors.Validation(validationFailed, f.list...)
}

// ListResult is one page (or all) of an owner's transactions. Pagination is nil when
// the caller did not ask for a page.
type ListResult struct {
	Transactions []models.Transaction `json:"transactions"`
	Pagination   *query.Pagination    `json:"pagination,omitempty"`
}

// ExportFile is a rendered export ready to be sent as an attachment.
type ExportFile struct {
	Body        []byte
	ContentType string
	Filename    string
}

type TransactionService struct {
	store     store.TransactionStore
	cache     *db.DashboardCache
	publisher events.Publisher
	formatter export.Formatter
	loc       *time.Location
	now       func() time.Time
	logger    *logging.Logger
}

func NewTransactionService(st store.TransactionStore, cache *db.DashboardCache, publisher events.Publisher,
	formatter export.Formatter, loc *time.Location, logger *logging.Logger) *TransactionService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &TransactionService{
		store:     st,
		cache:     cache,
		publisher: publisher,
		formatter: formatter,
		loc:       loc,
		now:       time.Now,
		logger:    logger.WithComponent(logging.ComponentTransactions),
	}
}

// WithClock replaces the clock used for export file names and event timestamps.
func (s *TransactionService) WithClock(now func() time.Time) *TransactionService {
	s.now = now
	return s
}

func (s *TransactionService) List(ctx context.Context, ownerID string, req query.ListRequest) (*ListResult, error) {
	list, total, err := s.store.ListTransactions(ctx, ownerID, req.Options)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if list == nil {
		list = []models.Transaction{}
	}
	result := &ListResult{Transactions: list}
	if req.Page != nil {
		p := query.NewPagination(*req.Page, total)
		result.Pagination = &p
	}
	return result, nil
}

func (s *TransactionService) Get(ctx context.Context, ownerID, id string) (*models.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return nil, storeError("get transaction", "Transaction not found", err)
	}
	return t, nil
}

func (s *TransactionService) Categories(ctx context.Context, ownerID string) ([]string, error) {
	names, err := s.store.Categories(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (s *TransactionService) Create(ctx context.Context, ownerID string, req models.CreateTransactionRequest) (*models.Transaction, error) {
	var fe fieldErrors
	fe.addAll(util.ValidateStruct(req))

	t := models.Transaction{
		ID:          uuid.NewString(),
		UserID:      ownerID,
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Type:        models.TransactionType(req.Type),
		Status:      models.StatusCompleted,
		Account:     strings.TrimSpace(req.Account),
		Notes:       req.Notes,
		Tags:        req.Tags,
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}

	if req.Date != "" {
		d, err := query.ParseDate(req.Date, s.loc, false)
		if err != nil {
			fe.add("date", "Please provide a valid date")
		}
		t.Date = d
	}
	if req.Amount != nil {
		v, ok := amountOf(*req.Amount)
		if !ok {
			fe.add("amount", "Amount must be a non-zero number")
		}
		t.Amount = v
	}
	if req.Status != "" {
		t.Status = models.NormalizeStatus(req.Status)
		if !t.Status.Valid() {
			fe.add("status", "Invalid status")
		}
	}
	if t.Description == "" {
		fe.add("description", "Description is required and must be under 200 characters")
	}
	if t.Category == "" {
		fe.add("category", "Category is required")
	}
	if t.Account == "" {
		fe.add("account", "Account is required")
	}
	if err := fe.err(); err != nil {
		return nil, err
	}

	if err := s.store.CreateTransaction(ctx, &t); err != nil {
		return nil, storeError("create transaction", "Transaction not found", err)
	}

	s.changed(ctx, models.EventCreated, t)
	s.logger.InfoContext(ctx, "transaction created",
		logging.FieldUserID, ownerID,
		logging.FieldTransactionID, t.ID)
	return &t, nil
}

// patchFrom validates an update request and converts it into a store patch.
func (s *TransactionService) patchFrom(req models.UpdateTransactionRequest) (models.TransactionPatch, error) {
	var fe fieldErrors
	fe.addAll(util.ValidateStruct(req))

	var p models.TransactionPatch
	if req.Date != nil {
		d, err := query.ParseDate(*req.Date, s.loc, false)
		if err != nil {
			fe.add("date", "Please provide a valid date")
		}
		p.Date = &d
	}
	if req.Description != nil {
		v := strings.TrimSpace(*req.Description)
		if v == "" {
			fe.add("description", "Description is required and must be under 200 characters")
		}
		p.Description = &v
	}
	if req.Category != nil {
		v := strings.TrimSpace(*req.Category)
		if v == "" {
			fe.add("category", "Category is required")
		}
		p.Category = &v
	}
	if req.Amount != nil {
		v, ok := amountOf(*req.Amount)
		if !ok {
			fe.add("amount", "Amount must be a non-zero number")
		}
		p.Amount = &v
	}
	if req.Type != nil {
		v := models.TransactionType(*req.Type)
		p.Type = &v
	}
	if req.Status != nil {
		v := models.NormalizeStatus(*req.Status)
		if !v.Valid() {
			fe.add("status", "Invalid status")
		}
		p.Status = &v
	}
	if req.Account != nil {
		v := strings.TrimSpace(*req.Account)
		if v == "" {
			fe.add("account", "Account is required")
		}
		p.Account = &v
	}
	p.Notes = req.Notes
	p.Tags = req.Tags

	return p, fe.err()
}

// Update merges the supplied fields into the owner's transaction.
func (s *TransactionService) Update(ctx context.Context, ownerID, id string, req models.UpdateTransactionRequest) (*models.Transaction, error) {
	patch, err := s.patchFrom(req)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return s.Get(ctx, ownerID, id)
	}

	t, err := s.store.UpdateTransaction(ctx, ownerID, id, patch)
	if err != nil {
		return nil, storeError("update transaction", "Transaction not found", err)
	}

	s.changed(ctx, models.EventUpdated, *t)
	s.logger.InfoContext(ctx, "transaction updated",
		logging.FieldUserID, ownerID,
		logging.FieldTransactionID, id)
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteTransaction(ctx, ownerID, id); err != nil {
		return storeError("delete transaction", "Transaction not found", err)
	}

	s.changed(ctx, models.EventDeleted, models.Transaction{ID: id, UserID: ownerID})
	s.logger.InfoContext(ctx, "transaction deleted",
		logging.FieldUserID, ownerID,
		logging.FieldTransactionID, id)
	return nil
}

// Import stores already validated transactions for ownerID, skipping ids that exist.
// It returns the number of new rows.
func (s *TransactionService) Import(ctx context.Context, ownerID string, list []models.Transaction) (int, error) {
	for i := range list {
		list[i].UserID = ownerID
	}
	n, err := s.store.InsertTransactions(ctx, list)
	if err != nil {
		return 0, fmt.Errorf("import transactions: %w", err)
	}
	if n > 0 {
		s.cache.Invalidate(ownerID)
	}
	s.logger.InfoContext(ctx, "transactions imported",
		logging.FieldUserID, ownerID,
		"received", len(list),
		"inserted", n)
	return n, nil
}

// exportOptions turns an export request into a store query over every matching row.
func (s *TransactionService) exportOptions(req models.ExportRequest) (query.Options, export.Mode, error) {
	var fe fieldErrors

	mode := export.CSV
	if req.Format != "" {
		m, ok := export.ParseMode(req.Format)
		if !ok {
			fe.add("format", "Format must be csv or json")
		}
		mode = m
	}

	f := query.Filter{
		Status:   req.Status,
		Category: req.Category,
		Type:     req.Type,
		Search:   req.Search,
		IDs:      req.SelectedIDs,
	}
	if req.DateFrom != "" {
		d, err := query.ParseDate(req.DateFrom, s.loc, false)
		if err != nil {
			fe.add("dateFrom", "Please provide a valid date")
		}
		f.DateFrom = &d
	}
	if req.DateTo != "" {
		d, err := query.ParseDate(req.DateTo, s.loc, true)
		if err != nil {
			fe.add("dateTo", "Please provide a valid date")
		}
		f.DateTo = &d
	}
	if req.MinAmount != nil {
		v := float64(*req.MinAmount)
		f.MinAmount = &v
	}
	if req.MaxAmount != nil {
		v := float64(*req.MaxAmount)
		f.MaxAmount = &v
	}

	sort := query.DefaultSort
	if req.SortBy != "" {
		if !query.IsSortable(req.SortBy) {
			fe.add("sortBy", "Unsupported sort field")
		}
		sort.Field = req.SortBy
	}
	if req.SortOrder != "" {
		sort.Direction = query.ParseDirection(req.SortOrder)
	}

	return query.Options{Filter: f, Sort: sort}, mode, fe.err()
}

// Export renders the owner's matching transactions as CSV or JSON.
func (s *TransactionService) Export(ctx context.Context, ownerID string, req models.ExportRequest) (*ExportFile, error) {
	opts, mode, err := s.exportOptions(req)
	if err != nil {
		return nil, err
	}

	list, _, err := s.store.ListTransactions(ctx, ownerID, opts)
	if err != nil {
		return nil, fmt.Errorf("list transactions for export: %w", err)
	}

	body, err := s.formatter.Format(list, req.Fields, mode)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "transactions exported",
		logging.FieldUserID, ownerID,
		"format", mode,
		"rows", len(list))
	return &ExportFile{
		Body:        body,
		ContentType: mode.ContentType(),
		Filename:    mode.Filename(s.now().In(s.loc)),
	}, nil
}

// changed drops the owner's cached dashboard and publishes the change. A publish
// failure is logged and otherwise ignored.
func (s *TransactionService) changed(ctx context.Context, action models.EventAction, t models.Transaction) {
	s.cache.Invalidate(t.UserID)

	msg := events.NewTransactionMessage(action, t, s.now())
	if err := s.publisher.PublishTransaction(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "failed to publish transaction event",
			logging.FieldTransactionID, t.ID,
			logging.FieldError, err)
	}
}

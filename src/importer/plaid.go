// Package importer converts external transaction feeds (Plaid transactions/sync and
// JSON datasets) into validated transactions ready for bulk insert.
package importer

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/plaid/plaid-go/v41/plaid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"finance-dashboard/src/models"
)

// plaidNamespace derives stable transaction ids from Plaid ids, so a re-sync of the
// same transaction is skipped by the store.
var plaidNamespace = uuid.MustParse("4f1b2a8e-6c1d-4e0f-9a53-2b7c1d0e9f61")

const dateOnly = "2006-01-02"

// Page is one transactions/sync round, converted.
type Page struct {
	Transactions []models.Transaction
	Skipped      int
	NextCursor   string
	HasMore      bool
}

// PlaidRecord holds the fields read from a Plaid transaction.
type PlaidRecord struct {
	ID        string
	AccountID string
	Name      string
	Merchant  string
	Category  string
	Date      string
	Amount    float64
	Pending   bool
}

func recordOf(t plaid.Transaction) PlaidRecord {
	return PlaidRecord{
		ID:        t.GetTransactionId(),
		AccountID: t.GetAccountId(),
		Name:      t.GetName(),
		Merchant:  t.GetMerchantName(),
		Category:  t.GetPersonalFinanceCategory().Primary,
		Date:      t.GetDate(),
		Amount:    t.GetAmount(),
		Pending:   t.GetPending(),
	}
}

var title = cases.Title(language.English)

// categoryLabel turns a Plaid category constant such as FOOD_AND_DRINK into
// "Food And Drink".
func categoryLabel(primary string) string {
	if primary == "" {
		return "Uncategorized"
	}
	return title.String(strings.ToLower(strings.ReplaceAll(primary, "_", " ")))
}

// FromPlaid maps a Plaid record onto a transaction. Plaid reports outflows as
// positive amounts; they become negative expenses here. Records without a usable
// date or amount are rejected.
func FromPlaid(rec PlaidRecord, loc *time.Location) (models.Transaction, bool) {
	if loc == nil {
		loc = time.UTC
	}
	date, err := time.ParseInLocation(dateOnly, rec.Date, loc)
	if err != nil || rec.ID == "" || rec.Amount == 0 || math.IsNaN(rec.Amount) {
		return models.Transaction{}, false
	}

	t := models.Transaction{
		ID:          uuid.NewSHA1(plaidNamespace, []byte(rec.ID)).String(),
		Date:        date,
		Description: rec.Name,
		Category:    categoryLabel(rec.Category),
		Amount:      -rec.Amount,
		Type:        models.TypeIncome,
		Status:      models.StatusCompleted,
		Account:     rec.AccountID,
		Tags:        []string{"plaid"},
	}
	if rec.Merchant != "" {
		t.Description = rec.Merchant
	}
	if t.Description == "" {
		t.Description = "Plaid transaction"
	}
	if len(t.Description) > 200 {
		t.Description = t.Description[:200]
	}
	if rec.Amount > 0 {
		t.Type = models.TypeExpense
	}
	if rec.Pending {
		t.Status = models.StatusPending
	}
	return t, true
}

// PlaidImporter pulls added transactions from Plaid's transactions/sync endpoint.
type PlaidImporter struct {
	client *plaid.APIClient
	loc    *time.Location
}

func NewPlaidImporter(client *plaid.APIClient, loc *time.Location) *PlaidImporter {
	return &PlaidImporter{client: client, loc: loc}
}

// Fetch runs one sync round starting at cursor (empty for the initial sync).
func (p *PlaidImporter) Fetch(ctx context.Context, accessToken, cursor string) (*Page, error) {
	request := plaid.NewTransactionsSyncRequest(accessToken)
	if cursor != "" {
		request.SetCursor(cursor)
	}

	resp, _, err := p.client.PlaidApi.TransactionsSync(ctx).TransactionsSyncRequest(*request).Execute()
	if err != nil {
		return nil, fmt.Errorf("plaid transactions sync: %w", err)
	}

	page := &Page{NextCursor: resp.GetNextCursor(), HasMore: resp.GetHasMore()}
	for _, added := range resp.GetAdded() {
		t, ok := FromPlaid(recordOf(added), p.loc)
		if !ok {
			page.Skipped++
			continue
		}
		page.Transactions = append(page.Transactions, t)
	}
	return page, nil
}

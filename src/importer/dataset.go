package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"finance-dashboard/src/models"
	"finance-dashboard/src/query"
)

var datasetNamespace = uuid.MustParse("b8e0c7d2-3f4a-4c1e-8d2b-6a9f0e1c5d34")

// DatasetRecord is one row of the legacy JSON dataset. Ids may be numbers or strings.
type DatasetRecord struct {
	ID       json.RawMessage `json:"id"`
	Date     string          `json:"date"`
	Amount   float64         `json:"amount"`
	Category string          `json:"category"`
	Status   string          `json:"status"`
	UserID   string          `json:"user_id"`
}

func (r DatasetRecord) legacyID() string {
	return strings.Trim(string(r.ID), `" `)
}

// ReadDataset decodes a JSON array of dataset records.
func ReadDataset(r io.Reader) ([]DatasetRecord, error) {
	var records []DatasetRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return records, nil
}

// LegacyOwners lists the distinct user_id values in first-seen order.
func LegacyOwners(records []DatasetRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		if r.UserID != "" && !seen[r.UserID] {
			seen[r.UserID] = true
			out = append(out, r.UserID)
		}
	}
	sort.Strings(out)
	return out
}

// Result reports how a dataset was converted.
type Result struct {
	Transactions []models.Transaction
	Skipped      int
}

// FromDataset converts dataset rows. owners maps legacy user ids onto user ids; rows
// whose owner is unmapped or whose date, amount or status is unusable are skipped.
// Legacy "paid" statuses become completed.
func FromDataset(records []DatasetRecord, owners map[string]string, loc *time.Location) Result {
	var res Result
	for _, r := range records {
		owner, ok := owners[r.UserID]
		if !ok {
			res.Skipped++
			continue
		}
		date, err := query.ParseDate(r.Date, loc, false)
		if err != nil || r.Amount == 0 {
			res.Skipped++
			continue
		}
		status := models.NormalizeStatus(r.Status)
		if r.Status == "" {
			status = models.StatusCompleted
		}
		if !status.Valid() {
			res.Skipped++
			continue
		}

		legacy := r.legacyID()
		t := models.Transaction{
			ID:          uuid.NewSHA1(datasetNamespace, []byte(r.UserID+"/"+legacy)).String(),
			UserID:      owner,
			Date:        date,
			Description: "Imported Transaction " + legacy,
			Category:    r.Category,
			Amount:      r.Amount,
			Type:        models.TypeIncome,
			Status:      status,
			Account:     "Imported Account",
			Notes:       "From user " + r.UserID,
			Tags:        []string{},
		}
		if strings.EqualFold(r.Category, "expense") {
			t.Type = models.TypeExpense
		}
		if t.Category == "" {
			t.Category = "Uncategorized"
		}
		res.Transactions = append(res.Transactions, t)
	}
	return res
}

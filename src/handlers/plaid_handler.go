package handlers

import (
	"context"
	"net/http"

	"finance-dashboard/src/apperrors"
	"finance-dashboard/src/importer"
	"finance-dashboard/src/models"
	"finance-dashboard/src/services"
	"finance-dashboard/src/util"
)

// PlaidFetcher runs one transactions/sync round against a linked item.
type PlaidFetcher interface {
	Fetch(ctx context.Context, accessToken, cursor string) (*importer.Page, error)
}

func ImportPlaidTransactions(fetcher PlaidFetcher, ts *services.TransactionService, rp Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.PlaidImportRequest
		if err := decodeJSON(r, &req); err != nil {
			rp.Error(w, r, err)
			return
		}
		if errs := util.ValidateStruct(req); errs != nil {
			rp.Error(w, r, apperrors.Validation(validationFailed, errs...))
			return
		}

		page, err := fetcher.Fetch(r.Context(), req.AccessToken, req.Cursor)
		if err != nil {
			rp.Error(w, r, err)
			return
		}

		inserted, err := ts.Import(r.Context(), currentUser(r).ID, page.Transactions)
		if err != nil {
			rp.Error(w, r, err)
			return
		}

		writeSuccess(w, http.StatusOK, "Transactions imported", models.PlaidImportResult{
			Imported:   inserted,
			Skipped:    page.Skipped + len(page.Transactions) - inserted,
			NextCursor: page.NextCursor,
			HasMore:    page.HasMore,
		})
	}
}

package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"finance-dashboard/src/models"
	"finance-dashboard/src/query"
	"finance-dashboard/src/services"
)

func GetTransactions(ts *services.TransactionService, loc *time.Location, rp Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := query.FromValues(r.URL.Query(), loc)
		if err != nil {
			rp.Error(w, r, err)
			return
		}

		result, err := ts.List(r.Context(), currentUser(r).ID, req)
		if err != nil {
			rp.Error(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, "Transactions retrieved", result)
	}
}

func GetCategories(ts *services.TransactionService, rp Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := ts.Categories(r.Context(), currentUser(r).ID)
		if err != nil {
			rp.Error(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, "Categories retrieved", names)
	}
}

func GetTransaction(ts *services.TransactionService, rp Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := ts.Get(r.Context(), currentUser(r).ID, chi.URLParam(r, "id"))
		if err != nil {
			rp.Error(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, "Transaction retrieved", t)
	}
}

func CreateTransaction(ts *services.TransactionService, rp Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateTransactionRequest
		if err := decodeJSON(r, &req); err != nil {
			rp.Error(w, r, err)
			return
		}

		t, err := ts.Create(r.Context(), currentUser(r).ID, req)
		if err != nil {
			rp.Error(w, r, err)
			return
		}
		writeSuccess(w, http.StatusCreated, "Transaction created", t)
	}
}

func UpdateTransaction(ts *services.TransactionService, rp Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.UpdateTransactionRequest
		if err := decodeJSON(r, &req); err != nil {
			rp.Error(w, r, err)
			return
		}

		t, err := ts.Update(r.Context(), currentUser(r).ID, chi.URLParam(r, "id"), req)
		if err != nil {
			rp.Error(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, "Transaction updated", t)
	}
}

func DeleteTransaction(ts *services.TransactionService, rp Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ts.Delete(r.Context(), currentUser(r).ID, chi.URLParam(r, "id")); err != nil {
			rp.Error(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, "Transaction deleted", nil)
	}
}

// ExportTransactions streams the export as a file attachment rather than an envelope.
func ExportTransactions(ts *services.TransactionService, rp Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.ExportRequest
		if err := decodeJSON(r, &req); err != nil {
			rp.Error(w, r, err)
			return
		}

		file, err := ts.Export(r.Context(), currentUser(r).ID, req)
		if err != nil {
			rp.Error(w, r, err)
			return
		}

		w.Header().Set("Content-Type", file.ContentType+"; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(file.Body)
	}
}

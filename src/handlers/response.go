package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"finance-dashboard/src/apperrors"
	"finance-dashboard/src/logging"
	"finance-dashboard/src/middleware"
	"finance-dashboard/src/models"
)

const maxBodyBytes = 1 << 20

// Reporter writes error envelopes and logs the failures behind them.
type Reporter struct {
	Logger *logging.Logger
	// Development adds the error chain to InternalError responses.
	Development bool
}

func writeJSON(w http.ResponseWriter, status int, env models.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, models.Envelope{Success: true, Message: message, Data: data})
}

// Error classifies err and writes the matching envelope.
func (rp Reporter) Error(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.From(err)
	env := models.Envelope{Success: false, Message: appErr.Message}
	if len(appErr.Fields) > 0 {
		env.Errors = appErr.Fields
	}

	status := appErr.Status()
	if status >= http.StatusInternalServerError {
		args := []any{
			logging.FieldRequestID, middleware.RequestID(r.Context()),
			logging.FieldMethod, r.Method,
			logging.FieldPath, r.URL.Path,
			logging.FieldError, err,
		}
		if u, ok := middleware.UserFromContext(r.Context()); ok {
			args = append(args, logging.FieldUserID, u.ID)
		}
		rp.Logger.ErrorContext(r.Context(), "request failed", args...)
		if rp.Development {
			env.Stack = fmt.Sprintf("%+v", err)
		}
	}
	writeJSON(w, status, env)
}

// decodeJSON reads a JSON body into v. An empty body leaves v unchanged.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		if errors.Is(err, models.ErrInvalidAmount) {
			return apperrors.Validation(validationFailed, apperrors.FieldError{
				Field:   "amount",
				Message: "Amount must be a non-zero number",
			})
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apperrors.Validation(validationFailed, apperrors.FieldError{
				Field:   typeErr.Field,
				Message: fmt.Sprintf("%s has the wrong type", typeErr.Field),
			})
		}
		return apperrors.Wrap(apperrors.KindValidation, "Invalid request body", err)
	}
	return nil
}

const validationFailed = "Validation failed"

// currentUser returns the authenticated user. Routes using it sit behind
// middleware.Authenticate.
func currentUser(r *http.Request) *models.User {
	u, _ := middleware.UserFromContext(r.Context())
	if u == nil {
		return &models.User{}
	}
	return u
}

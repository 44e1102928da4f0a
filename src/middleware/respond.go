package middleware

import (
	"encoding/json"
	"net/http"

	"finance-dashboard/src/apperrors"
	"finance-dashboard/src/models"
)

func writeError(w http.ResponseWriter, err *apperrors.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status())
	_ = json.NewEncoder(w).Encode(models.Envelope{Success: false, Message: err.Message})
}

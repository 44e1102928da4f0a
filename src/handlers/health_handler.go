package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"finance-dashboard/src/models"
)

type HealthStatus struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
}

func Health(environment string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(HealthStatus{
			Success:     true,
			Message:     "Server is running",
			Timestamp:   time.Now().UTC(),
			Environment: environment,
		})
	}
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, models.Envelope{Success: false, Message: "Not found - " + r.URL.Path})
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, models.Envelope{Success: false, Message: "Method " + r.Method + " not allowed on " + r.URL.Path})
}

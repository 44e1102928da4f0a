package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want int
	}{
		{"validation", Validation("bad input"), http.StatusBadRequest},
		{"auth", Auth("Invalid token"), http.StatusUnauthorized},
		{"forbidden", Forbidden("Insufficient permissions"), http.StatusForbidden},
		{"not found", NotFound("Transaction not found"), http.StatusNotFound},
		{"conflict", Conflict("Duplicate field value entered", nil), http.StatusBadRequest},
		{"empty export", EmptyExport(), http.StatusBadRequest},
		{"rate limit", RateLimited(), http.StatusTooManyRequests},
		{"internal", Internal("boom", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Status(); got != tt.want {
				t.Errorf("Status() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFromWrapped(t *testing.T) {
	wrapped := fmt.Errorf("update transaction: %w", NotFound("Transaction not found"))

	got := From(wrapped)
	if got.Kind != KindNotFound {
		t.Errorf("From().Kind = %s, want %s", got.Kind, KindNotFound)
	}
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound() = false, want true")
	}
}

func TestFromPlainError(t *testing.T) {
	cause := errors.New("connection reset")

	got := From(cause)
	if got.Kind != KindInternal {
		t.Errorf("From().Kind = %s, want %s", got.Kind, KindInternal)
	}
	if got.Message != "Internal server error" {
		t.Errorf("From().Message = %q, want generic message", got.Message)
	}
	if !errors.Is(got, cause) {
		t.Error("From() should keep the cause reachable with errors.Is")
	}
	if From(nil) != nil {
		t.Error("From(nil) should be nil")
	}
}

func TestValidationFields(t *testing.T) {
	err := Validation("Validation failed",
		FieldError{Field: "amount", Message: "Amount must be a non-zero number"},
		FieldError{Field: "type", Message: "Type must be income or expense"},
	)
	if len(err.Fields) != 2 {
		t.Fatalf("len(Fields) = %d, want 2", len(err.Fields))
	}
	if err.Fields[0].Field != "amount" {
		t.Errorf("Fields[0].Field = %q, want amount", err.Fields[0].Field)
	}
}

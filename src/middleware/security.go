package middleware

import (
	"net/http"
	"runtime/debug"

	"finance-dashboard/src/apperrors"
	"finance-dashboard/src/logging"
)

// SecurityHeaders sets the response headers every JSON API response carries.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cross-Origin-Resource-Policy", "same-site")
		next.ServeHTTP(w, r)
	})
}

// Recover turns a panic in a handler into a 500 envelope.
func Recover(logger *logging.Logger) func(http.Handler) http.Handler {
	logger = logger.WithComponent(logging.ComponentHTTP)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil || rec == http.ErrAbortHandler {
					if rec != nil {
						panic(rec)
					}
					return
				}
				logger.ErrorContext(r.Context(), "panic in handler",
					logging.FieldRequestID, RequestID(r.Context()),
					logging.FieldPath, r.URL.Path,
					logging.FieldError, rec,
					"stack", string(debug.Stack()))
				writeError(w, apperrors.Internal("Internal server error", nil))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

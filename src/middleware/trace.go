package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"finance-dashboard/src/logging"
)

// responseWriter captures the status code written by the handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Trace assigns every request an id, returns it in X-Request-ID and logs the request
// at a level chosen by the response status.
func Trace(logger *logging.Logger) func(http.Handler) http.Handler {
	logger = logger.WithComponent(logging.ComponentHTTP)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get("X-Request-ID")
			if _, err := uuid.Parse(requestID); err != nil {
				requestID = uuid.NewString()
			}
			ctx := context.WithValue(r.Context(), requestIDKey, requestID)
			r = r.WithContext(ctx)
			w.Header().Set("X-Request-ID", requestID)

			logger.DebugContext(ctx, "request started",
				logging.FieldRequestID, requestID,
				logging.FieldMethod, r.Method,
				logging.FieldPath, r.URL.Path,
				logging.FieldClientIP, ClientIP(r, false),
				logging.FieldForwardedFor, r.Header.Get("X-Forwarded-For"))

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			level := slog.LevelInfo
			if rw.statusCode >= 500 {
				level = slog.LevelError
			} else if rw.statusCode >= 400 {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "request completed",
				logging.FieldComponent, logger.Component(),
				logging.FieldRequestID, requestID,
				logging.FieldMethod, r.Method,
				logging.FieldPath, r.URL.Path,
				logging.FieldQuery, r.URL.RawQuery,
				logging.FieldStatusCode, rw.statusCode,
				logging.FieldDuration, time.Since(start).Milliseconds(),
				logging.FieldSuccess, rw.statusCode < 400)
		})
	}
}

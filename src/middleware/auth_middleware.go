package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"finance-dashboard/src/apperrors"
	"finance-dashboard/src/auth"
	"finance-dashboard/src/logging"
	"finance-dashboard/src/models"
	"finance-dashboard/src/store"
)

// UserLookup loads the account behind a verified token.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// Authenticate verifies the bearer token and loads the user it names. Requests
// without a valid token for an active user are answered with 401.
func Authenticate(tokens *auth.TokenService, users UserLookup, logger *logging.Logger) func(http.Handler) http.Handler {
	logger = logger.WithComponent(logging.ComponentAuth)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, apperrors.Auth("Access token is required"))
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				writeError(w, apperrors.From(err))
				return
			}

			user, err := users.GetUserByID(r.Context(), claims.UserID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				logger.ErrorContext(r.Context(), "failed to load user for token",
					logging.FieldUserID, claims.UserID,
					logging.FieldError, err)
				writeError(w, apperrors.Internal("Authentication error", err))
				return
			}
			if user == nil || !user.IsActive {
				writeError(w, apperrors.Auth("User not found or inactive"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireRole lets the request through only when the authenticated user has one of
// roles.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := make(map[models.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeError(w, apperrors.Auth("Authentication required"))
				return
			}
			if !allowed[user.Role] {
				writeError(w, apperrors.Forbidden("Insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

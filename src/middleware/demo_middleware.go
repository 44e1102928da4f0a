package middleware

import (
	"net/http"

	"finance-dashboard/src/apperrors"
	"finance-dashboard/src/models"
)

// DemoMode makes the API read-only for everyone except admins. Login, token refresh
// and export stay available since they do not change data.
func DemoMode(isDemo bool) func(http.Handler) http.Handler {
	allowedPosts := map[string]bool{
		"/api/auth/login":          true,
		"/api/auth/refresh":        true,
		"/api/transactions/export": true,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isDemo || r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if user, ok := UserFromContext(r.Context()); ok && user.Role == models.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}
			if r.Method == http.MethodPost && allowedPosts[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			writeError(w, apperrors.Forbidden("Demo mode: only GET requests are allowed"))
		})
	}
}

package middleware

import (
	"net/http"

	"wallet/internal/models"
)

// RequireAdmin must run after Auth; it reads the resolved role from context.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserIDFromContext(r.Context()); !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			role, ok := RoleFromContext(r.Context())
			if !ok || role != models.RoleAdmin {
				http.Error(w, "admin privileges required", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"wallet/internal/auth"
	"wallet/internal/models"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	roleKey   contextKey = "role"
)

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok
}

func RoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(roleKey).(string)
	return role, ok
}

// AccountResolver loads the account behind a verified token.
type AccountResolver interface {
	GetByID(ctx context.Context, userID string) (models.User, error)
}

// Auth verifies the bearer token, resolves the caller's account and rejects
// disabled accounts. A missing or invalid credential is never anonymous.
func Auth(secret string, users AccountResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "invalid authorization header", http.StatusUnauthorized)
				return
			}
			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			user, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					http.Error(w, "invalid token", http.StatusUnauthorized)
					return
				}
				http.Error(w, "unable to verify account", http.StatusInternalServerError)
				return
			}
			if !user.IsActive {
				http.Error(w, "account disabled", http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, user.ID)
			ctx = context.WithValue(ctx, roleKey, user.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

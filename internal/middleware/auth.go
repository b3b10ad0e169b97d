package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/steady/internal/auth"
	"github.com/dukerupert/steady/internal/model"
)

// AccountLookup resolves the account named by a token.
type AccountLookup interface {
	GetByID(ctx context.Context, id int64) (*model.Account, error)
}

// RequireAuth validates the jwt cookie and populates AuthContext. The role
// comes from the stored account, not the token, so a role change takes
// effect without a new login.
func RequireAuth(tokens *auth.Tokens, accounts AccountLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.CookieName)
			if err != nil || cookie.Value == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized: No Token Provided")
				return
			}

			claims, err := tokens.Parse(cookie.Value)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized: Invalid Token")
				return
			}

			account, err := accounts.GetByID(r.Context(), claims.AccountID)
			if err != nil {
				slog.Error("resolve token account", "account_id", claims.AccountID, "error", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if account == nil {
				writeError(w, http.StatusNotFound, "User not found")
				return
			}

			ac := auth.AuthContext{
				AccountID: account.ID,
				Role:      account.Role,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated callers whose role is not in roles.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := auth.Role(r.Context())
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "Forbidden")
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// internal/api/middleware/provision.go
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/util"
)

// UserProvisioner stores the authenticated caller locally. service.UserService implements it.
type UserProvisioner interface {
	EnsureUser(ctx context.Context, caller domain.Caller) error
}

// Provision makes sure the caller has a users row before any handler writes rows that
// reference it. Mount it after Identity.
func Provision(users UserProvisioner, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := CallerFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if err := users.EnsureUser(r.Context(), caller); err != nil {
				if errors.Is(err, util.ErrDuplicateEntry) {
					writeError(w, http.StatusConflict, "username already belongs to another user")
					return
				}
				logger.Error("failed to provision user", "user_id", caller.UserID, "error", err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

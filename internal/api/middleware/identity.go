// internal/api/middleware/identity.go
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"finflow-ledger/internal/api/types"
	"finflow-ledger/internal/domain"
)

type contextKey string

const callerContextKey contextKey = "caller"

// Claims is the bearer token payload. The subject carries the numeric user id.
type Claims struct {
	Username    string `json:"username"`
	IsSuperuser bool   `json:"is_superuser"`
	jwt.RegisteredClaims
}

// Identity validates HS256 bearer tokens and stores the resulting domain.Caller in the
// request context.
func Identity(secret []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			caller, err := ParseToken(parts[1], secret)
			if err != nil {
				logger.Debug("rejected bearer token", "error", err)
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), callerContextKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSuperuser rejects callers without the superuser flag. Mount it after Identity.
func RequireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !caller.IsSuperuser {
			writeError(w, http.StatusForbidden, "superuser access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CallerFromContext returns the identity stored by Identity.
func CallerFromContext(ctx context.Context) (domain.Caller, bool) {
	caller, ok := ctx.Value(callerContextKey).(domain.Caller)
	return caller, ok
}

// WithCaller stores caller in ctx as Identity would.
func WithCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}

// ParseToken verifies an HS256 token and maps its claims to a caller.
func ParseToken(tokenString string, secret []byte) (domain.Caller, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Caller{}, err
	}
	if !token.Valid {
		return domain.Caller{}, errors.New("invalid token")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return domain.Caller{}, fmt.Errorf("invalid subject %q", claims.Subject)
	}
	return domain.Caller{UserID: userID, Username: claims.Username, IsSuperuser: claims.IsSuperuser}, nil
}

// IssueToken signs an HS256 token for caller.
func IssueToken(caller domain.Caller, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username:    caller.Username,
		IsSuperuser: caller.IsSuperuser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(caller.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: message})
}

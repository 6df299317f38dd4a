// internal/api/middleware/identity_test.go
package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finflow-ledger/internal/domain"
)

var secret = []byte("test-secret")

func echoCaller(t *testing.T, want domain.Caller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := CallerFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, want, got)
		w.WriteHeader(http.StatusNoContent)
	})
}

func serve(h http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIdentity(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	caller := domain.Caller{UserID: 42, Username: "alice"}

	t.Run("ValidToken", func(t *testing.T) {
		token, err := IssueToken(caller, secret, time.Hour)
		require.NoError(t, err)

		rec := serve(Identity(secret, logger)(echoCaller(t, caller)), "Bearer "+token)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		rec := serve(Identity(secret, logger)(echoCaller(t, caller)), "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("WrongScheme", func(t *testing.T) {
		rec := serve(Identity(secret, logger)(echoCaller(t, caller)), "Basic abc")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		token, err := IssueToken(caller, []byte("other"), time.Hour)
		require.NoError(t, err)

		rec := serve(Identity(secret, logger)(echoCaller(t, caller)), "Bearer "+token)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Expired", func(t *testing.T) {
		token, err := IssueToken(caller, secret, -time.Minute)
		require.NoError(t, err)

		rec := serve(Identity(secret, logger)(echoCaller(t, caller)), "Bearer "+token)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("NonNumericSubject", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "alice"}).SignedString(secret)
		require.NoError(t, err)

		_, err = ParseToken(token, secret)

		assert.Error(t, err)
	})
}

func TestRequireSuperuser(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	for name, tc := range map[string]struct {
		caller *domain.Caller
		want   int
	}{
		"Anonymous": {nil, http.StatusUnauthorized},
		"Regular":   {&domain.Caller{UserID: 1}, http.StatusForbidden},
		"Superuser": {&domain.Caller{UserID: 2, IsSuperuser: true}, http.StatusNoContent},
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tc.caller != nil {
				req = req.WithContext(WithCaller(req.Context(), *tc.caller))
			}
			rec := httptest.NewRecorder()

			RequireSuperuser(ok).ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

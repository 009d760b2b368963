package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anshimpay/anshim/internal/auth"
)

var secret = []byte("test-secret")

func TestTokenRoundTrip(t *testing.T) {
	p := auth.Principal{UserID: uuid.New(), Role: auth.RoleAdmin}

	token, err := auth.IssueToken(secret, p, time.Hour)
	require.NoError(t, err)

	got, err := auth.ParseToken(secret, token)

	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestParseToken(t *testing.T) {
	t.Run("WrongSecret", func(t *testing.T) {
		token, err := auth.IssueToken(secret, auth.Principal{UserID: uuid.New(), Role: auth.RoleCustomer}, time.Hour)
		require.NoError(t, err)

		_, err = auth.ParseToken([]byte("other-secret"), token)

		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		token, err := auth.IssueToken(secret, auth.Principal{UserID: uuid.New(), Role: auth.RoleCustomer}, -time.Minute)
		require.NoError(t, err)

		_, err = auth.ParseToken(secret, token)

		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := auth.ParseToken(secret, "not.a.token")

		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestMiddleware(t *testing.T) {
	principal := auth.Principal{UserID: uuid.New(), Role: auth.RolePartner}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := auth.FromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, principal, got)

		w.WriteHeader(http.StatusNoContent)
	})

	handler := auth.Middleware(secret)(next)

	t.Run("ValidToken", func(t *testing.T) {
		token, err := auth.IssueToken(secret, principal, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("MalformedHeader", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic abc123")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

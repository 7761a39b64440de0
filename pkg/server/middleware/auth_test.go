package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bugout-dev/spire/pkg/identity"
)

func TestTokenAuthenticator_Middleware(t *testing.T) {
	key := []byte("test-signing-key")
	auth := NewTokenAuthenticator(key)

	var captured *identity.Identity
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = identity.Get(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid token", func(t *testing.T) {
		captured = nil
		token, err := identity.IssueToken("alice", []string{"g-ops"}, key, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/journals", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.RemoteAddr = "192.168.1.100:51234"
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, captured)
		assert.Equal(t, "alice", captured.UserID)
		assert.Equal(t, []string{"g-ops"}, captured.Groups)
		assert.Equal(t, "192.168.1.100", captured.RemoteIP.String())
	})

	t.Run("missing header", func(t *testing.T) {
		captured = nil
		req := httptest.NewRequest(http.MethodGet, "/journals", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, captured)
	})

	t.Run("malformed header", func(t *testing.T) {
		captured = nil
		req := httptest.NewRequest(http.MethodGet, "/journals", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, captured)
	})

	t.Run("expired token", func(t *testing.T) {
		captured = nil
		token, err := identity.IssueToken("alice", nil, key, -time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/journals", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, captured)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		captured = nil
		token, err := identity.IssueToken("alice", nil, []byte("other-key"), time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/journals", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, captured)
	})
}

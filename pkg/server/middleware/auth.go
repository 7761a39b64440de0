package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/bugout-dev/spire/pkg/identity"
)

// TokenAuthenticator is middleware that validates bearer access tokens
type TokenAuthenticator struct {
	signingKey []byte
}

// NewTokenAuthenticator creates a new token authenticator middleware
func NewTokenAuthenticator(signingKey []byte) *TokenAuthenticator {
	return &TokenAuthenticator{signingKey: signingKey}
}

// Middleware returns an HTTP middleware that validates access tokens
func (a *TokenAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")

		if len(authHeader) == 0 {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Authorization missing"))
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || tokenString == "" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Malformed authorization header"))
			return
		}

		id, err := identity.FromToken(tokenString, a.signingKey)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Invalid access token"))
			return
		}

		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			id.WithRemoteIP(net.ParseIP(host))
		}

		r = r.WithContext(identity.Set(r.Context(), id))
		next.ServeHTTP(w, r)
	})
}

// Package auth guards the SSE endpoints of the server.
package auth

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/sha1n/relic-results/internal/config"
)

// APIKeyHeader carries the key checked by apikey authentication.
const APIKeyHeader = "X-API-Key"

// PublicPaths are served without credentials.
var PublicPaths = []string{"/health"}

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// verifier reports whether a request carries valid credentials. challenge,
// when set, is sent in the WWW-Authenticate header of a rejection.
type verifier struct {
	check     func(*http.Request) bool
	challenge string
}

// NewMiddleware creates the authentication middleware configured by settings.
// AuthTypeNone and an empty type pass every request through.
func NewMiddleware(settings config.AuthSettings) (Middleware, error) {
	switch settings.Type {
	case config.AuthTypeNone, "":
		return func(next http.Handler) http.Handler { return next }, nil
	case config.AuthTypeBasic:
		if settings.Basic.Username == "" || settings.Basic.Password == "" {
			return nil, fmt.Errorf("basic auth requires non-empty username and password")
		}
		return guard(verifier{
			check:     basicCheck(settings.Basic),
			challenge: `Basic realm="relic-results"`,
		}), nil
	case config.AuthTypeAPIKey:
		if len(settings.APIKeys) == 0 {
			return nil, fmt.Errorf("apikey auth requires at least one API key")
		}
		return guard(verifier{check: apiKeyCheck(settings.APIKeys)}), nil
	default:
		return nil, fmt.Errorf("unknown auth type: %s", settings.Type)
	}
}

func guard(v verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(PublicPaths, r.URL.Path) || v.check(r) {
				next.ServeHTTP(w, r)
				return
			}
			slog.Debug("Rejected unauthenticated request", "path", r.URL.Path, "remote", r.RemoteAddr)
			if v.challenge != "" {
				w.Header().Set("WWW-Authenticate", v.challenge)
			}
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		})
	}
}

func basicCheck(settings config.BasicAuthSettings) func(*http.Request) bool {
	return func(r *http.Request) bool {
		user, pass, ok := r.BasicAuth()
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(settings.Username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(settings.Password)) == 1
		return ok && userMatch && passMatch
	}
}

func apiKeyCheck(keys []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			return false
		}
		valid := false
		for _, k := range keys {
			if subtle.ConstantTimeCompare([]byte(key), []byte(k)) == 1 {
				valid = true
			}
		}
		return valid
	}
}

// Package middleware provides HTTP middleware for the mingle API.
package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/artpar/mingle/internal/core/domain"
	"github.com/artpar/mingle/internal/core/identity"
)

// =============================================================================
// Dependencies
// =============================================================================

// TokenVerifier checks an access token and returns the login it was minted
// for. identity.TokenIssuer implements this interface.
type TokenVerifier interface {
	Verify(token string) (login string, err error)
}

// UserLookup resolves a login to a user. The store implements this interface.
type UserLookup interface {
	GetUserByLogin(ctx context.Context, login string) (*domain.User, error)
}

// =============================================================================
// Auth Middleware
// =============================================================================

// AuthMiddleware authenticates requests with a Bearer access token and stores
// the resolved user in the request context.
type AuthMiddleware struct {
	verifier TokenVerifier
	users    UserLookup
	logger   *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(verifier TokenVerifier, users UserLookup, logger *slog.Logger) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{
		verifier: verifier,
		users:    users,
		logger:   logger,
	}
}

// Handler returns the middleware handler function. Requests without a valid
// token, or whose token subject no longer exists, get a 401.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		login, err := m.verifier.Verify(token)
		if err != nil {
			m.logger.Debug("token rejected", "path", r.URL.Path, "error", err)
			writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		user, err := m.users.GetUserByLogin(r.Context(), login)
		if err != nil {
			m.logger.Debug("token subject not found", "login", login, "error", err)
			writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(identity.WithUser(r.Context(), user)))
	})
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// writeJSONError writes the API error body.
func writeJSONError(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"reason": reason})
}

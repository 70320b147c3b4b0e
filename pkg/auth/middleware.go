package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"go.uber.org/zap"
)

// Middleware provides HTTP authentication middleware.
// It is thin and delegates token validation to AuthService.
type Middleware struct {
	authService AuthService
	sessions    *SessionStore
	verify      bool
	logger      *zap.Logger
}

// NewMiddleware creates a new auth middleware. When verify is false, requests
// without a token fall back to the dev session (sessions may be nil) and may
// proceed anonymously.
func NewMiddleware(authService AuthService, sessions *SessionStore, verify bool, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		sessions:    sessions,
		verify:      verify,
		logger:      logger,
	}
}

// RequireAuth resolves the acting user and stores it in the context together
// with the claims and raw token.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, token, err := m.authService.ValidateRequest(r)
		if err != nil {
			if m.verify || !errors.Is(err, ErrMissingAuthorization) {
				m.unauthorized(w, "Authentication required")
				return
			}
			ctx := r.Context()
			if m.sessions != nil {
				if actor, ok := m.sessions.Actor(r); ok {
					ctx = WithActor(ctx, actor)
				}
			}
			next(w, r.WithContext(ctx))
			return
		}

		actor, err := ActorFromClaims(claims)
		if err != nil {
			m.logger.Warn("Rejected token with invalid subject",
				zap.String("subject", claims.Subject),
				zap.String("path", r.URL.Path))
			m.unauthorized(w, "Invalid user in token")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		ctx = context.WithValue(ctx, TokenKey, token)
		ctx = WithActor(ctx, actor)
		next(w, r.WithContext(ctx))
	}
}

// RequireRole allows the request through only if the acting user holds one
// of roles. Must run after RequireAuth.
func RequireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			actor, ok := GetActor(r.Context())
			if !ok || !slices.Contains(roles, actor.Role) {
				writeAuthError(w, http.StatusForbidden, "forbidden", "Insufficient permissions")
				return
			}
			next(w, r)
		}
	}
}

// unauthorized returns a 401 response with JSON error body.
func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	writeAuthError(w, http.StatusUnauthorized, "unauthorized", message)
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   code,
		"message": message,
	})
}

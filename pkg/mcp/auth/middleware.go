// Package mcpauth provides MCP-specific authentication middleware.
// It wraps the core auth service with RFC 6750 Bearer token error responses.
package mcpauth

import (
	"context"
	"errors"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/auth"
)

// FailureRecorder is told about rejected MCP requests.
type FailureRecorder interface {
	RecordAuthFailure(userID, reason, clientIP string)
}

// Middleware provides MCP-specific authentication middleware.
// Unlike the general auth middleware, this returns RFC 6750 WWW-Authenticate
// headers for OAuth 2.0 Bearer token authentication errors and never falls
// back to the dev session cookie.
type Middleware struct {
	authService auth.AuthService
	verify      bool
	recorder    FailureRecorder
	logger      *zap.Logger
}

// NewMiddleware creates a new MCP auth middleware. With verify false a request
// without any token is let through anonymously, as on the REST API.
func NewMiddleware(authService auth.AuthService, verify bool, recorder FailureRecorder, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		verify:      verify,
		recorder:    recorder,
		logger:      logger,
	}
}

// RequireAuth validates the bearer token and stores the claims, raw token and
// acting user in the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, token, err := m.authService.ValidateRequest(r)
		if err != nil {
			if !m.verify && errors.Is(err, auth.ErrMissingAuthorization) {
				next.ServeHTTP(w, r)
				return
			}
			m.logger.Debug("MCP auth failed: invalid or missing token",
				zap.String("path", r.URL.Path),
				zap.Error(err))
			m.recordFailure(r, "", "invalid_token")
			m.writeWWWAuthenticate(w, http.StatusUnauthorized, "invalid_token", "The access token is invalid or expired")
			return
		}

		actor, err := auth.ActorFromClaims(claims)
		if err != nil {
			m.logger.Debug("MCP auth failed: token has no usable subject",
				zap.String("path", r.URL.Path),
				zap.Error(err))
			m.recordFailure(r, claims.Subject, "invalid_subject")
			m.writeWWWAuthenticate(w, http.StatusUnauthorized, "invalid_token", "The access token does not identify a CRM user")
			return
		}

		ctx := context.WithValue(r.Context(), auth.ClaimsKey, claims)
		ctx = context.WithValue(ctx, auth.TokenKey, token)
		ctx = auth.WithActor(ctx, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) recordFailure(r *http.Request, userID, reason string) {
	if m.recorder == nil {
		return
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	m.recorder.RecordAuthFailure(userID, reason, ip)
}

// writeWWWAuthenticate writes an RFC 6750 Bearer token error response.
// See: https://datatracker.ietf.org/doc/html/rfc6750#section-3
func (m *Middleware) writeWWWAuthenticate(w http.ResponseWriter, status int, errorCode, description string) {
	headerValue := `Bearer error="` + errorCode + `", error_description="` + description + `"`
	w.Header().Set("WWW-Authenticate", headerValue)
	w.WriteHeader(status)
}

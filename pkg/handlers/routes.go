package handlers

import (
	"net/http"

	"github.com/ekaya-inc/ekaya-crm/pkg/auth"
)

// ScopeMiddleware attaches a user-scoped store connection to the request.
// database.WithUserScope returns one.
type ScopeMiddleware func(http.HandlerFunc) http.HandlerFunc

// authed chains auth then scope around h.
func authed(authMiddleware *auth.Middleware, scope ScopeMiddleware, h http.HandlerFunc) http.HandlerFunc {
	return authMiddleware.RequireAuth(scope(h))
}

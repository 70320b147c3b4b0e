package database

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	// ScopeKey is the context key for storing the user-scoped database connection.
	ScopeKey contextKey = "dbScope"
)

// GetScope retrieves the scoped database connection from context.
// Returns nil and false if not present.
func GetScope(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(ScopeKey).(*Scope)
	return scope, ok && scope != nil && scope.Conn != nil
}

// SetScope stores the scoped database connection in context.
func SetScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, ScopeKey, scope)
}

// ScopeProvider creates scoped contexts for database operations outside the
// HTTP middleware (CLI commands, MCP tools, concurrent dashboard loads).
type ScopeProvider interface {
	// WithScope returns a context carrying a fresh connection for userID.
	// The cleanup function must be called when the scope is no longer needed.
	WithScope(ctx context.Context, userID *uuid.UUID) (context.Context, func(), error)
}

type scopeProvider struct {
	db *DB
}

var _ ScopeProvider = (*scopeProvider)(nil)

// NewScopeProvider creates a ScopeProvider for the given database.
func NewScopeProvider(db *DB) ScopeProvider {
	return &scopeProvider{db: db}
}

func (p *scopeProvider) WithScope(ctx context.Context, userID *uuid.UUID) (context.Context, func(), error) {
	scope, err := p.db.WithUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return SetScope(ctx, scope), scope.Close, nil
}

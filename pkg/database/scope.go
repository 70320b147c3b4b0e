package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Scope is a pooled connection bound to the acting user. The connection has
// app.current_user_id set so row-level policies and triggers in the store can
// see who is writing.
type Scope struct {
	Conn   *pgxpool.Conn
	UserID *uuid.UUID
}

// Close resets the user context and releases the connection to the pool.
// This MUST be called to prevent the user context leaking to the next request.
func (s *Scope) Close() {
	if s.Conn == nil {
		return
	}
	if s.UserID != nil {
		_, _ = s.Conn.Exec(context.Background(), "RESET app.current_user_id")
	}
	s.Conn.Release()
	s.Conn = nil
}

// WithUser acquires a connection and sets the acting user. A nil userID
// yields an anonymous scope (CLI, seeding, migrations).
// The returned Scope MUST be closed with defer scope.Close().
func (db *DB) WithUser(ctx context.Context, userID *uuid.UUID) (*Scope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	if userID != nil {
		_, err = conn.Exec(ctx, "SELECT set_config('app.current_user_id', $1, false)", userID.String())
		if err != nil {
			conn.Release()
			return nil, fmt.Errorf("failed to set acting user: %w", err)
		}
	}

	return &Scope{Conn: conn, UserID: userID}, nil
}

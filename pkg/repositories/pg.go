package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-sql/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ekaya-inc/ekaya-crm/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-crm/pkg/database"
)

// PostgreSQL error codes mapped to ErrConflict.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// querier is the subset of pgx shared by pooled connections and transactions.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

func scopeConn(ctx context.Context) (querier, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}
	return scope.Conn, nil
}

// writeError wraps a failed write. Constraint violations also match
// apperrors.ErrConflict.
func writeError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation, pgUniqueViolation, pgCheckViolation:
			return fmt.Errorf("failed to %s: %w: %w", op, apperrors.ErrConflict, err)
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// readError wraps a failed single-row read, mapping pgx.ErrNoRows to
// apperrors.ErrNotFound.
func readError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func dateArg(d *civil.Date) any {
	if d == nil {
		return nil
	}
	return d.In(time.UTC)
}

func dateValue(d pgtype.Date) *civil.Date {
	if !d.Valid {
		return nil
	}
	v := civil.DateOf(d.Time)
	return &v
}

// textArg stores empty strings as NULL.
func textArg(s string) any {
	if s == "" {
		return nil
	}
	return s
}

package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-crm/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
)

// EnterpriseRepository defines the interface for enterprise data access.
type EnterpriseRepository interface {
	List(ctx context.Context) ([]models.Enterprise, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Enterprise, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, e *models.Enterprise) error
	Update(ctx context.Context, e *models.Enterprise) error
	// Delete removes an enterprise. Its opportunities and activities are
	// deleted with it; its contacts are detached.
	Delete(ctx context.Context, id uuid.UUID) error
}

type enterpriseRepository struct{}

// NewEnterpriseRepository creates a new enterprise repository.
func NewEnterpriseRepository() EnterpriseRepository {
	return &enterpriseRepository{}
}

var _ EnterpriseRepository = (*enterpriseRepository)(nil)

const enterpriseColumns = `
	id, name, COALESCE(sector, ''), revenue::float8, headcount,
	COALESCE(address, ''), COALESCE(website, ''), owner_id, created_at, updated_at`

func scanEnterprise(row pgx.Row) (*models.Enterprise, error) {
	var e models.Enterprise
	err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Sector,
		&e.Revenue,
		&e.Headcount,
		&e.Address,
		&e.Website,
		&e.OwnerID,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns all enterprises ordered by name.
func (r *enterpriseRepository) List(ctx context.Context) ([]models.Enterprise, error) {
	conn, err := scopeConn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, `SELECT `+enterpriseColumns+` FROM enterprises ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list enterprises: %w", err)
	}
	defer rows.Close()

	list := []models.Enterprise{}
	for rows.Next() {
		e, err := scanEnterprise(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enterprise: %w", err)
		}
		list = append(list, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enterprises: %w", err)
	}
	return list, nil
}

// GetByID retrieves an enterprise by ID.
func (r *enterpriseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Enterprise, error) {
	conn, err := scopeConn(ctx)
	if err != nil {
		return nil, err
	}

	e, err := scanEnterprise(conn.QueryRow(ctx, `SELECT `+enterpriseColumns+` FROM enterprises WHERE id = $1`, id))
	if err != nil {
		return nil, readError("get enterprise", err)
	}
	return e, nil
}

// Count returns the number of enterprises.
func (r *enterpriseRepository) Count(ctx context.Context) (int, error) {
	conn, err := scopeConn(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM enterprises`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count enterprises: %w", err)
	}
	return n, nil
}

// Create inserts an enterprise and fills in its ID and timestamps.
func (r *enterpriseRepository) Create(ctx context.Context, e *models.Enterprise) error {
	conn, err := scopeConn(ctx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO enterprises (name, sector, revenue, headcount, address, website, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err = conn.QueryRow(ctx, query,
		e.Name,
		textArg(e.Sector),
		e.Revenue,
		e.Headcount,
		textArg(e.Address),
		textArg(e.Website),
		e.OwnerID,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return writeError("create enterprise", err)
	}
	return nil
}

// Update overwrites every editable field of an enterprise.
func (r *enterpriseRepository) Update(ctx context.Context, e *models.Enterprise) error {
	conn, err := scopeConn(ctx)
	if err != nil {
		return err
	}

	query := `
		UPDATE enterprises
		SET name = $2, sector = $3, revenue = $4, headcount = $5,
		    address = $6, website = $7, owner_id = $8
		WHERE id = $1
		RETURNING created_at, updated_at`

	err = conn.QueryRow(ctx, query,
		e.ID,
		e.Name,
		textArg(e.Sector),
		e.Revenue,
		e.Headcount,
		textArg(e.Address),
		textArg(e.Website),
		e.OwnerID,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.ErrNotFound
		}
		return writeError("update enterprise", err)
	}
	return nil
}

// Delete removes an enterprise by ID.
func (r *enterpriseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	conn, err := scopeConn(ctx)
	if err != nil {
		return err
	}

	result, err := conn.Exec(ctx, `DELETE FROM enterprises WHERE id = $1`, id)
	if err != nil {
		return writeError("delete enterprise", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ekaya-inc/ekaya-crm/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
)

// OpportunityRepository defines the interface for opportunity data access.
type OpportunityRepository interface {
	// List returns every opportunity with its enterprise name, newest first.
	List(ctx context.Context) ([]models.Opportunity, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error)
	ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]models.Opportunity, error)
	ListByContact(ctx context.Context, contactID uuid.UUID) ([]models.Opportunity, error)
	Create(ctx context.Context, o *models.Opportunity) error
	Update(ctx context.Context, o *models.Opportunity) error
	// UpdateStatus writes only the status and actual close date.
	UpdateStatus(ctx context.Context, id uuid.UUID, patch models.OpportunityStatusPatch) (*models.Opportunity, error)
	// Delete removes an opportunity and its activities.
	Delete(ctx context.Context, id uuid.UUID) error
}

type opportunityRepository struct{}

// NewOpportunityRepository creates a new opportunity repository.
func NewOpportunityRepository() OpportunityRepository {
	return &opportunityRepository{}
}

var _ OpportunityRepository = (*opportunityRepository)(nil)

const opportunitySelect = `
	SELECT o.id, o.title, o.amount::float8, o.status, o.probability,
	       o.expected_close_date, o.actual_close_date, o.enterprise_id, o.contact_id,
	       o.owner_id, o.created_at, o.updated_at, COALESCE(e.name, '')
	FROM opportunities o
	LEFT JOIN enterprises e ON e.id = o.enterprise_id`

func scanOpportunity(row pgx.Row) (*models.Opportunity, error) {
	var (
		o                models.Opportunity
		expected, actual pgtype.Date
		status           string
	)
	err := row.Scan(
		&o.ID,
		&o.Title,
		&o.Amount,
		&status,
		&o.Probability,
		&expected,
		&actual,
		&o.EnterpriseID,
		&o.ContactID,
		&o.OwnerID,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.EnterpriseName,
	)
	if err != nil {
		return nil, err
	}
	o.Status = models.OpportunityStatus(status)
	o.ExpectedCloseDate = dateValue(expected)
	o.ActualCloseDate = dateValue(actual)
	return &o, nil
}

func (r *opportunityRepository) query(ctx context.Context, op, sql string, args ...any) ([]models.Opportunity, error) {
	conn, err := scopeConn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	list := []models.Opportunity{}
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		list = append(list, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating opportunities: %w", err)
	}
	return list, nil
}

func (r *opportunityRepository) List(ctx context.Context) ([]models.Opportunity, error) {
	return r.query(ctx, "list opportunities", opportunitySelect+` ORDER BY o.created_at DESC, o.id`)
}

func (r *opportunityRepository) ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]models.Opportunity, error) {
	return r.query(ctx, "list opportunities by enterprise",
		opportunitySelect+` WHERE o.enterprise_id = $1 ORDER BY o.created_at DESC, o.id`, enterpriseID)
}

func (r *opportunityRepository) ListByContact(ctx context.Context, contactID uuid.UUID) ([]models.Opportunity, error) {
	return r.query(ctx, "list opportunities by contact",
		opportunitySelect+` WHERE o.contact_id = $1 ORDER BY o.created_at DESC, o.id`, contactID)
}

func (r *opportunityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	conn, err := scopeConn(ctx)
	if err != nil {
		return nil, err
	}

	o, err := scanOpportunity(conn.QueryRow(ctx, opportunitySelect+` WHERE o.id = $1`, id))
	if err != nil {
		return nil, readError("get opportunity", err)
	}
	return o, nil
}

func (r *opportunityRepository) Create(ctx context.Context, o *models.Opportunity) error {
	conn, err := scopeConn(ctx)
	if err != nil {
		return err
	}

	if o.Status == "" {
		o.Status = models.StatusProspecting
	}

	query := `
		INSERT INTO opportunities (title, amount, status, probability, expected_close_date,
		                           actual_close_date, enterprise_id, contact_id, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err = conn.QueryRow(ctx, query,
		o.Title,
		o.Amount,
		string(o.Status),
		o.Probability,
		dateArg(o.ExpectedCloseDate),
		dateArg(o.ActualCloseDate),
		o.EnterpriseID,
		o.ContactID,
		o.OwnerID,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return writeError("create opportunity", err)
	}
	return nil
}

func (r *opportunityRepository) Update(ctx context.Context, o *models.Opportunity) error {
	conn, err := scopeConn(ctx)
	if err != nil {
		return err
	}

	query := `
		UPDATE opportunities
		SET title = $2, amount = $3, status = $4, probability = $5, expected_close_date = $6,
		    actual_close_date = $7, enterprise_id = $8, contact_id = $9, owner_id = $10
		WHERE id = $1
		RETURNING created_at, updated_at`

	err = conn.QueryRow(ctx, query,
		o.ID,
		o.Title,
		o.Amount,
		string(o.Status),
		o.Probability,
		dateArg(o.ExpectedCloseDate),
		dateArg(o.ActualCloseDate),
		o.EnterpriseID,
		o.ContactID,
		o.OwnerID,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.ErrNotFound
		}
		return writeError("update opportunity", err)
	}
	return nil
}

func (r *opportunityRepository) UpdateStatus(ctx context.Context, id uuid.UUID, patch models.OpportunityStatusPatch) (*models.Opportunity, error) {
	conn, err := scopeConn(ctx)
	if err != nil {
		return nil, err
	}

	result, err := conn.Exec(ctx,
		`UPDATE opportunities SET status = $2, actual_close_date = $3 WHERE id = $1`,
		id, string(patch.Status), dateArg(patch.ActualCloseDate))
	if err != nil {
		return nil, writeError("update opportunity status", err)
	}
	if result.RowsAffected() == 0 {
		return nil, apperrors.ErrNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *opportunityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	conn, err := scopeConn(ctx)
	if err != nil {
		return err
	}

	result, err := conn.Exec(ctx, `DELETE FROM opportunities WHERE id = $1`, id)
	if err != nil {
		return writeError("delete opportunity", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

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

// ActivityRepository defines the interface for activity data access.
type ActivityRepository interface {
	// List returns every activity ordered by due date, undated last.
	List(ctx context.Context) ([]models.Activity, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Activity, error)
	ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]models.Activity, error)
	ListByContact(ctx context.Context, contactID uuid.UUID) ([]models.Activity, error)
	ListByOpportunity(ctx context.Context, opportunityID uuid.UUID) ([]models.Activity, error)
	Create(ctx context.Context, a *models.Activity) error
	// CreateBatch inserts all activities in one transaction. Either every
	// row is written or none is.
	CreateBatch(ctx context.Context, acts []*models.Activity) error
	Update(ctx context.Context, a *models.Activity) error
	// ToggleDone flips is_done and returns the updated activity.
	ToggleDone(ctx context.Context, id uuid.UUID) (*models.Activity, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type activityRepository struct{}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository() ActivityRepository {
	return &activityRepository{}
}

var _ ActivityRepository = (*activityRepository)(nil)

const activityColumns = `
	id, type, subject, COALESCE(description, ''), due_date, completed_on, is_done,
	enterprise_id, contact_id, opportunity_id, owner_id, created_at, updated_at`

const activityOrder = ` ORDER BY due_date ASC NULLS LAST, created_at, id`

func scanActivity(row pgx.Row) (*models.Activity, error) {
	var (
		a              models.Activity
		kind           string
		due, completed pgtype.Date
	)
	err := row.Scan(
		&a.ID,
		&kind,
		&a.Subject,
		&a.Description,
		&due,
		&completed,
		&a.IsDone,
		&a.EnterpriseID,
		&a.ContactID,
		&a.OpportunityID,
		&a.OwnerID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Type = models.ActivityType(kind)
	a.DueDate = dateValue(due)
	a.CompletedOn = dateValue(completed)
	return &a, nil
}

func (r *activityRepository) query(ctx context.Context, op, sql string, args ...any) ([]models.Activity, error) {
	conn, err := scopeConn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	list := []models.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		list = append(list, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}
	return list, nil
}

func (r *activityRepository) List(ctx context.Context) ([]models.Activity, error) {
	return r.query(ctx, "list activities", `SELECT `+activityColumns+` FROM activities`+activityOrder)
}

func (r *activityRepository) ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]models.Activity, error) {
	return r.query(ctx, "list activities by enterprise",
		`SELECT `+activityColumns+` FROM activities WHERE enterprise_id = $1`+activityOrder, enterpriseID)
}

func (r *activityRepository) ListByContact(ctx context.Context, contactID uuid.UUID) ([]models.Activity, error) {
	return r.query(ctx, "list activities by contact",
		`SELECT `+activityColumns+` FROM activities WHERE contact_id = $1`+activityOrder, contactID)
}

func (r *activityRepository) ListByOpportunity(ctx context.Context, opportunityID uuid.UUID) ([]models.Activity, error) {
	return r.query(ctx, "list activities by opportunity",
		`SELECT `+activityColumns+` FROM activities WHERE opportunity_id = $1`+activityOrder, opportunityID)
}

func (r *activityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	conn, err := scopeConn(ctx)
	if err != nil {
		return nil, err
	}

	a, err := scanActivity(conn.QueryRow(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = $1`, id))
	if err != nil {
		return nil, readError("get activity", err)
	}
	return a, nil
}

const insertActivity = `
	INSERT INTO activities (type, subject, description, due_date, completed_on, is_done,
	                        enterprise_id, contact_id, opportunity_id, owner_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id, created_at, updated_at`

func insertActivityRow(ctx context.Context, q querier, a *models.Activity) error {
	return q.QueryRow(ctx, insertActivity,
		string(a.Type),
		a.Subject,
		textArg(a.Description),
		dateArg(a.DueDate),
		dateArg(a.CompletedOn),
		a.IsDone,
		a.EnterpriseID,
		a.ContactID,
		a.OpportunityID,
		a.OwnerID,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *activityRepository) Create(ctx context.Context, a *models.Activity) error {
	conn, err := scopeConn(ctx)
	if err != nil {
		return err
	}

	if err := insertActivityRow(ctx, conn, a); err != nil {
		return writeError("create activity", err)
	}
	return nil
}

func (r *activityRepository) CreateBatch(ctx context.Context, acts []*models.Activity) error {
	conn, err := scopeConn(ctx)
	if err != nil {
		return err
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i, a := range acts {
		if err := insertActivityRow(ctx, tx, a); err != nil {
			return writeError(fmt.Sprintf("create activity %d of batch", i), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *activityRepository) Update(ctx context.Context, a *models.Activity) error {
	conn, err := scopeConn(ctx)
	if err != nil {
		return err
	}

	query := `
		UPDATE activities
		SET type = $2, subject = $3, description = $4, due_date = $5, completed_on = $6,
		    is_done = $7, enterprise_id = $8, contact_id = $9, opportunity_id = $10, owner_id = $11
		WHERE id = $1
		RETURNING created_at, updated_at`

	err = conn.QueryRow(ctx, query,
		a.ID,
		string(a.Type),
		a.Subject,
		textArg(a.Description),
		dateArg(a.DueDate),
		dateArg(a.CompletedOn),
		a.IsDone,
		a.EnterpriseID,
		a.ContactID,
		a.OpportunityID,
		a.OwnerID,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.ErrNotFound
		}
		return writeError("update activity", err)
	}
	return nil
}

func (r *activityRepository) ToggleDone(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	conn, err := scopeConn(ctx)
	if err != nil {
		return nil, err
	}

	a, err := scanActivity(conn.QueryRow(ctx,
		`UPDATE activities SET is_done = NOT is_done WHERE id = $1 RETURNING `+activityColumns, id))
	if err != nil {
		return nil, readError("toggle activity", err)
	}
	return a, nil
}

func (r *activityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	conn, err := scopeConn(ctx)
	if err != nil {
		return err
	}

	result, err := conn.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return writeError("delete activity", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

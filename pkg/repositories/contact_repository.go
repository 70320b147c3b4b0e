package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-crm/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
)

// ContactRepository defines the interface for contact data access.
type ContactRepository interface {
	// List returns every contact with its enterprise name, ordered by last name.
	List(ctx context.Context) ([]models.Contact, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contact, error)
	// ListByEnterprise returns the enterprise's contacts, primary contacts first.
	ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]models.Contact, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, c *models.Contact) error
	Update(ctx context.Context, c *models.Contact) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type contactRepository struct{}

// NewContactRepository creates a new contact repository.
func NewContactRepository() ContactRepository {
	return &contactRepository{}
}

var _ ContactRepository = (*contactRepository)(nil)

const contactSelect = `
	SELECT c.id, c.first_name, c.last_name, COALESCE(c.title, ''), COALESCE(c.email, ''),
	       COALESCE(c.phone, ''), c.is_primary, c.enterprise_id, c.owner_id,
	       c.created_at, c.updated_at, COALESCE(e.name, '')
	FROM contacts c
	LEFT JOIN enterprises e ON e.id = c.enterprise_id`

func scanContact(row pgx.Row) (*models.Contact, error) {
	var c models.Contact
	err := row.Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.Title,
		&c.Email,
		&c.Phone,
		&c.IsPrimary,
		&c.EnterpriseID,
		&c.OwnerID,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.EnterpriseName,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contactRepository) query(ctx context.Context, op, sql string, args ...any) ([]models.Contact, error) {
	conn, err := scopeConn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	list := []models.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		list = append(list, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}
	return list, nil
}

func (r *contactRepository) List(ctx context.Context) ([]models.Contact, error) {
	return r.query(ctx, "list contacts", contactSelect+` ORDER BY c.last_name, c.first_name, c.id`)
}

func (r *contactRepository) ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]models.Contact, error) {
	return r.query(ctx, "list contacts by enterprise",
		contactSelect+` WHERE c.enterprise_id = $1 ORDER BY c.is_primary DESC, c.last_name, c.id`,
		enterpriseID)
}

func (r *contactRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	conn, err := scopeConn(ctx)
	if err != nil {
		return nil, err
	}

	c, err := scanContact(conn.QueryRow(ctx, contactSelect+` WHERE c.id = $1`, id))
	if err != nil {
		return nil, readError("get contact", err)
	}
	return c, nil
}

func (r *contactRepository) Count(ctx context.Context) (int, error) {
	conn, err := scopeConn(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return n, nil
}

func (r *contactRepository) Create(ctx context.Context, c *models.Contact) error {
	conn, err := scopeConn(ctx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO contacts (first_name, last_name, title, email, phone, is_primary, enterprise_id, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err = conn.QueryRow(ctx, query,
		c.FirstName,
		c.LastName,
		textArg(c.Title),
		textArg(c.Email),
		textArg(c.Phone),
		c.IsPrimary,
		c.EnterpriseID,
		c.OwnerID,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return writeError("create contact", err)
	}
	return nil
}

func (r *contactRepository) Update(ctx context.Context, c *models.Contact) error {
	conn, err := scopeConn(ctx)
	if err != nil {
		return err
	}

	query := `
		UPDATE contacts
		SET first_name = $2, last_name = $3, title = $4, email = $5, phone = $6,
		    is_primary = $7, enterprise_id = $8, owner_id = $9
		WHERE id = $1
		RETURNING created_at, updated_at`

	err = conn.QueryRow(ctx, query,
		c.ID,
		c.FirstName,
		c.LastName,
		textArg(c.Title),
		textArg(c.Email),
		textArg(c.Phone),
		c.IsPrimary,
		c.EnterpriseID,
		c.OwnerID,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.ErrNotFound
		}
		return writeError("update contact", err)
	}
	return nil
}

func (r *contactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	conn, err := scopeConn(ctx)
	if err != nil {
		return err
	}

	result, err := conn.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return writeError("delete contact", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

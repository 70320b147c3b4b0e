package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-crm/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	// Update writes email, name and role. Demoting the last admin returns
	// ErrLastAdmin.
	Update(ctx context.Context, user *models.User) error
	// Delete removes a user, returning ErrLastAdmin if it is the last admin.
	Delete(ctx context.Context, id uuid.UUID) error
}

// userRepository implements UserRepository using PostgreSQL.
type userRepository struct{}

// NewUserRepository creates a new user repository.
func NewUserRepository() UserRepository {
	return &userRepository{}
}

var _ UserRepository = (*userRepository)(nil)

const userColumns = `id, email, name, role, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns all users ordered by name.
func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	conn, err := scopeConn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	conn, err := scopeConn(ctx)
	if err != nil {
		return nil, err
	}

	u, err := scanUser(conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, readError("get user", err)
	}
	return u, nil
}

// Create inserts a user and fills in its ID and timestamps.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	conn, err := scopeConn(ctx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (email, name, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err = conn.QueryRow(ctx, query, user.Email, user.Name, user.Role).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return writeError("create user", err)
	}
	return nil
}

// Update atomically updates a user, refusing to demote the last admin.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	conn, err := scopeConn(ctx)
	if err != nil {
		return err
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := checkLastAdmin(ctx, tx, user.ID, user.Role != models.RoleAdmin); err != nil {
		return err
	}

	query := `
		UPDATE users
		SET email = $2, name = $3, role = $4
		WHERE id = $1
		RETURNING created_at, updated_at`

	err = tx.QueryRow(ctx, query, user.ID, user.Email, user.Name, user.Role).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return writeError("update user", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete atomically removes a user, refusing to remove the last admin.
// Records owned by the user keep existing with no owner.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	conn, err := scopeConn(ctx)
	if err != nil {
		return err
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := checkLastAdmin(ctx, tx, id, true); err != nil {
		return err
	}

	result, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return writeError("delete user", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// checkLastAdmin returns ErrLastAdmin if id is an admin, losing the role,
// and no other admin exists. The admin rows are locked until tx ends.
func checkLastAdmin(ctx context.Context, tx pgx.Tx, id uuid.UUID, losesAdmin bool) error {
	var role string
	err := tx.QueryRow(ctx, `SELECT role FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&role)
	if err != nil {
		return readError("get user", err)
	}
	if role != models.RoleAdmin || !losesAdmin {
		return nil
	}

	rows, err := tx.Query(ctx, `SELECT id FROM users WHERE role = 'admin' FOR UPDATE`)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	admins := 0
	for rows.Next() {
		admins++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}

	if admins <= 1 {
		return apperrors.ErrLastAdmin
	}
	return nil
}

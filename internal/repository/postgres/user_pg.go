// internal/repository/postgres/user_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/repository"
	"finflow-ledger/internal/util"
)

// UserRepository implements repository.UserRepository for PostgreSQL.
type UserRepository struct{}

// NewUserRepository creates a new UserRepository.
func NewUserRepository() repository.UserRepository {
	return &UserRepository{}
}

const userColumns = `id, username, is_superuser, created_at, updated_at`

// CreateUser inserts a new user into the database using the provided DBExecutor.
func (r *UserRepository) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	query := `INSERT INTO users (username, is_superuser, created_at, updated_at)
              VALUES ($1, $2, $3, $4) RETURNING id`
	err := q.QueryRowContext(ctx, query, user.Username, user.IsSuperuser, user.CreatedAt, user.UpdatedAt).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return util.ErrDuplicateEntry
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *UserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.User, error) {
	var user domain.User
	err := q.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID %d: %w", id, err)
	}
	return &user, nil
}

// EnsureUser inserts the user under its upstream id unless that id is already stored.
// It reports whether a row was inserted. A username held by another id yields util.ErrDuplicateEntry.
func (r *UserRepository) EnsureUser(ctx context.Context, q repository.DBExecutor, user *domain.User) (bool, error) {
	query := `INSERT INTO users (id, username, is_superuser, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`
	result, err := q.ExecContext(ctx, query, user.ID, user.Username, user.IsSuperuser, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return false, util.ErrDuplicateEntry
		}
		return false, fmt.Errorf("failed to ensure user %d: %w", user.ID, err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected after ensuring user %d: %w", user.ID, err)
	}
	return inserted == 1, nil
}

// ListUserIDs returns every user id in ascending order.
func (r *UserRepository) ListUserIDs(ctx context.Context, q repository.DBExecutor) ([]int64, error) {
	ids := []int64{}
	if err := q.SelectContext(ctx, &ids, `SELECT id FROM users ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	return ids, nil
}

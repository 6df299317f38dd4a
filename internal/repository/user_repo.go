// internal/repository/user_repo.go
package repository

import (
	"context"

	"finflow-ledger/internal/domain"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(ctx context.Context, q DBExecutor, user *domain.User) error
	GetUserByID(ctx context.Context, q DBExecutor, id int64) (*domain.User, error)
	// EnsureUser stores a user under the id issued by the identity provider; an existing
	// id is left untouched. It reports whether the row was inserted.
	EnsureUser(ctx context.Context, q DBExecutor, user *domain.User) (bool, error)
	// ListUserIDs returns every user id in ascending order.
	ListUserIDs(ctx context.Context, q DBExecutor) ([]int64, error)
}

// internal/service/user_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finflow-ledger/internal/domain"
	"finflow-ledger/internal/repository"
	"finflow-ledger/internal/util"
)

// UserService keeps the local users table in step with the identity provider.
type UserService interface {
	// EnsureUser stores the caller on first sight so account rows can reference it.
	EnsureUser(ctx context.Context, caller domain.Caller) error
}

type userService struct {
	dbExecutor repository.DBExecutor
	users      repository.UserRepository
	clock      util.Clock
	logger     *slog.Logger
}

// NewUserService creates a new instance of UserService.
func NewUserService(dbExecutor repository.DBExecutor, users repository.UserRepository, clock util.Clock, logger *slog.Logger) UserService {
	return &userService{dbExecutor: dbExecutor, users: users, clock: clock, logger: logger}
}

func (s *userService) EnsureUser(ctx context.Context, caller domain.Caller) error {
	_, err := s.users.GetUserByID(ctx, s.dbExecutor, caller.UserID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, util.ErrUserNotFound) {
		return fmt.Errorf("ensure user %d: %w", caller.UserID, err)
	}

	username := caller.Username
	if username == "" {
		username = fmt.Sprintf("user-%d", caller.UserID)
	}
	now := s.clock.NowUTC()
	user := &domain.User{
		ID:          caller.UserID,
		Username:    username,
		IsSuperuser: caller.IsSuperuser,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	inserted, err := s.users.EnsureUser(ctx, s.dbExecutor, user)
	if err != nil {
		return err
	}
	if inserted {
		s.logger.Info("provisioned user", "user_id", user.ID, "username", user.Username)
	}
	return nil
}

package profile

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/pkg/logger"
	"github.com/fastygo/taskshare/repository"
	"github.com/fastygo/taskshare/usecase/auth"
)

type UseCase struct {
	users  repository.UserRepository
	cost   int
	logger *zap.Logger
}

func New(users repository.UserRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		cost:   bcrypt.DefaultCost,
		logger: logger,
	}
}

func (uc *UseCase) WithCost(cost int) *UseCase {
	uc.cost = cost
	return uc
}

func (uc *UseCase) GetProfile(ctx context.Context, userID int64) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

// UpdateProfile replaces username and email. Both are required.
func (uc *UseCase) UpdateProfile(ctx context.Context, userID int64, username, email string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return nil, domain.Validation("username and email are required")
	}

	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Username = username
	user.Email = email
	if err := uc.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return uc.users.GetByID(ctx, userID)
}

func (uc *UseCase) ChangePassword(ctx context.Context, userID int64, password string) error {
	if password == "" {
		return domain.Validation("password is required")
	}
	hash, err := auth.HashPassword(password, uc.cost)
	if err != nil {
		return err
	}
	if err := uc.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	logger.WithRequestID(ctx, uc.logger).Info("password changed", zap.Int64("user_id", userID))
	return nil
}

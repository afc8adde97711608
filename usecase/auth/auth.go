package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/pkg/logger"
	"github.com/fastygo/taskshare/repository"
	"github.com/fastygo/taskshare/usecase"
)

// Result is returned by Register and Login.
type Result struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

type UseCase struct {
	users  repository.UserRepository
	tokens usecase.TokenIssuer
	cost   int
	logger *zap.Logger
}

func New(users repository.UserRepository, tokens usecase.TokenIssuer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		tokens: tokens,
		cost:   bcrypt.DefaultCost,
		logger: logger,
	}
}

// WithCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (uc *UseCase) WithCost(cost int) *UseCase {
	uc.cost = cost
	return uc
}

func (uc *UseCase) Register(ctx context.Context, username, email, password string) (*Result, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, domain.Validation("username, email and password are required")
	}

	hash, err := HashPassword(password, uc.cost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.WithRequestID(ctx, uc.logger).Info("user registered", zap.Int64("user_id", user.ID))
	return uc.issue(user)
}

func (uc *UseCase) Login(ctx context.Context, email, password string) (*Result, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.Validation("email and password are required")
	}

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return uc.issue(user)
}

func (uc *UseCase) issue(user *domain.User) (*Result, error) {
	token, err := uc.tokens.Sign(user.Principal())
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to issue token", err)
	}
	return &Result{User: user, Token: token}, nil
}

// HashPassword bcrypt-hashes password at the given cost.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeInternal, "failed to hash password", err)
	}
	return string(hash), nil
}

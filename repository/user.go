package repository

import (
	"context"

	"github.com/fastygo/taskshare/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// GetByEmail returns the user including its password hash.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByIdentifier matches either the email or the username.
	FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	// Create fails with domain.ErrUserExists when the email or username is taken.
	Create(ctx context.Context, user *domain.User) error
	UpdateProfile(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

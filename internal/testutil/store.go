package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/repository"
	"github.com/fastygo/taskshare/repository/sqlite"
)

// NewTestStore creates an in-memory SQLite store with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// Repos bundles the repositories of one test store.
type Repos struct {
	Store         *sqlite.Store
	Users         repository.UserRepository
	Tasks         repository.TaskRepository
	Participants  repository.ParticipantRepository
	Notifications repository.NotificationRepository
}

func NewRepos(t *testing.T) Repos {
	t.Helper()
	s := NewTestStore(t)
	return Repos{
		Store:         s,
		Users:         sqlite.NewUserRepository(s),
		Tasks:         sqlite.NewTaskRepository(s),
		Participants:  sqlite.NewParticipantRepository(s),
		Notifications: sqlite.NewNotificationRepository(s),
	}
}

// CreateUser inserts a user named username with a derived email.
func (r Repos) CreateUser(t *testing.T, username string) domain.Principal {
	t.Helper()
	now := time.Now().UTC()
	u := &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.Users.Create(context.Background(), u); err != nil {
		t.Fatalf("creating user %s: %v", username, err)
	}
	return u.Principal()
}

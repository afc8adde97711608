package repository

import (
	"context"

	"github.com/fastygo/taskshare/domain"
)

type TaskRepository interface {
	// GetByID returns domain.ErrTaskNotFound when no row exists.
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	// ListForViewer returns every task the viewer owns or participates in,
	// newest first.
	ListForViewer(ctx context.Context, viewerID int64) ([]domain.Task, error)
	Create(ctx context.Context, task domain.NewTask) (*domain.Task, error)
	Update(ctx context.Context, id int64, changes domain.TaskChanges) error
	SetStatus(ctx context.Context, id int64, status domain.TaskStatus) error
	// Delete cascades participation rows and notifications referencing the task.
	Delete(ctx context.Context, id int64) error
}

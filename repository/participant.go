package repository

import (
	"context"

	"github.com/fastygo/taskshare/domain"
)

type ParticipantRepository interface {
	// List batch-loads participants for every task id in one query. An empty
	// input returns an empty map without touching storage.
	List(ctx context.Context, taskIDs []int64) (map[int64][]domain.Participant, error)
	// Add fails with domain.ErrSelfShare when the user owns the task and with
	// domain.ErrAlreadyShared when a row already exists for the pair.
	Add(ctx context.Context, p domain.Participation) error
	// SetStatus fails with domain.ErrParticipantNotFound when no row exists.
	SetStatus(ctx context.Context, taskID, userID int64, status domain.TaskStatus) error
}

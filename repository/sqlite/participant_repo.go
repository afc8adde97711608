package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/repository"
)

type participantRepository struct {
	store *Store
}

// NewParticipantRepository returns a SQLite-backed ParticipantRepository.
func NewParticipantRepository(store *Store) repository.ParticipantRepository {
	return &participantRepository{store: store}
}

type participantRow struct {
	TaskID      int64  `db:"task_id"`
	UserID      int64  `db:"user_id"`
	Username    string `db:"username"`
	Email       string `db:"email"`
	AccessLevel string `db:"access_level"`
	Status      string `db:"status"`
}

func (r *participantRepository) List(ctx context.Context, taskIDs []int64) (map[int64][]domain.Participant, error) {
	result := make(map[int64][]domain.Participant)
	if len(taskIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`
		SELECT tp.task_id, tp.user_id, u.username, u.email, tp.access_level, tp.status
		FROM task_participants tp
		JOIN users u ON u.id = tp.user_id
		WHERE tp.task_id IN (?)
		ORDER BY tp.task_id, tp.id`, taskIDs)
	if err != nil {
		return nil, fmt.Errorf("building participant query: %w", err)
	}

	var rows []participantRow
	if err := r.store.db.SelectContext(ctx, &rows, r.store.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}

	for _, row := range rows {
		result[row.TaskID] = append(result[row.TaskID], domain.Participant{
			UserID:      row.UserID,
			Username:    row.Username,
			Email:       row.Email,
			AccessLevel: domain.AccessLevel(row.AccessLevel),
			Status:      domain.TaskStatus(row.Status),
		})
	}
	return result, nil
}

func (r *participantRepository) Add(ctx context.Context, p domain.Participation) error {
	var ownerID int64
	if err := r.store.db.GetContext(ctx, &ownerID, `SELECT user_id FROM tasks WHERE id = ?`, p.TaskID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return fmt.Errorf("loading owner of task %d: %w", p.TaskID, err)
	}
	if ownerID == p.UserID {
		return domain.ErrSelfShare
	}

	status := p.Status
	if status == "" {
		status = domain.StatusPending
	}

	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO task_participants (task_id, user_id, access_level, status, invited_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.TaskID, p.UserID, string(p.AccessLevel), string(status), p.InvitedBy, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyShared
		}
		return fmt.Errorf("adding participant %d to task %d: %w", p.UserID, p.TaskID, err)
	}
	return nil
}

func (r *participantRepository) SetStatus(ctx context.Context, taskID, userID int64, status domain.TaskStatus) error {
	result, err := r.store.db.ExecContext(ctx,
		`UPDATE task_participants SET status = ? WHERE task_id = ? AND user_id = ?`,
		string(status), taskID, userID,
	)
	if err != nil {
		return fmt.Errorf("setting participant status: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrParticipantNotFound
	}
	return nil
}

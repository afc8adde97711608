package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/repository"
)

type participantRepository struct {
	pool *pgxpool.Pool
}

// NewParticipantRepository returns a Postgres-backed ParticipantRepository.
func NewParticipantRepository(pool *pgxpool.Pool) repository.ParticipantRepository {
	return &participantRepository{pool: pool}
}

func (r *participantRepository) List(ctx context.Context, taskIDs []int64) (map[int64][]domain.Participant, error) {
	result := make(map[int64][]domain.Participant)
	if len(taskIDs) == 0 {
		return result, nil
	}

	const query = `
	SELECT tp.task_id, tp.user_id, u.username, u.email, tp.access_level, tp.status
	FROM task_participants tp
	JOIN users u ON u.id = tp.user_id
	WHERE tp.task_id = ANY($1)
	ORDER BY tp.task_id, tp.id
	`
	rows, err := r.pool.Query(ctx, query, taskIDs)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			taskID      int64
			p           domain.Participant
			accessLevel string
			status      string
		)
		if err := rows.Scan(&taskID, &p.UserID, &p.Username, &p.Email, &accessLevel, &status); err != nil {
			return nil, err
		}
		p.AccessLevel = domain.AccessLevel(accessLevel)
		p.Status = domain.TaskStatus(status)
		result[taskID] = append(result[taskID], p)
	}
	return result, rows.Err()
}

func (r *participantRepository) Add(ctx context.Context, p domain.Participation) error {
	var ownerID int64
	err := r.pool.QueryRow(ctx, `SELECT user_id FROM tasks WHERE id = $1`, p.TaskID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

	const query = `
	INSERT INTO task_participants (task_id, user_id, access_level, status, invited_by)
	VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.pool.Exec(ctx, query,
		p.TaskID,
		p.UserID,
		string(p.AccessLevel),
		string(status),
		p.InvitedBy,
	); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyShared
		}
		return fmt.Errorf("adding participant %d to task %d: %w", p.UserID, p.TaskID, err)
	}
	return nil
}

func (r *participantRepository) SetStatus(ctx context.Context, taskID, userID int64, status domain.TaskStatus) error {
	const query = `UPDATE task_participants SET status = $3 WHERE task_id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, query, taskID, userID, string(status))
	if err != nil {
		return fmt.Errorf("setting participant status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrParticipantNotFound
	}
	return nil
}

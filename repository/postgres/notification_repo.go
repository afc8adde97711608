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

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository returns a Postgres-backed NotificationRepository.
func NewNotificationRepository(pool *pgxpool.Pool) repository.NotificationRepository {
	return &notificationRepository{pool: pool}
}

const notificationColumns = `id, user_id, task_id, type, title, message, metadata, is_read, created_at`

func (r *notificationRepository) Create(ctx context.Context, in domain.NotificationInput) (*domain.Notification, error) {
	query := `
	INSERT INTO notifications (user_id, task_id, type, title, message, metadata)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING ` + notificationColumns

	var metadata interface{}
	if raw := marshalMetadata(in.Metadata); raw != nil {
		metadata = string(raw)
	}

	row := r.pool.QueryRow(ctx, query, in.UserID, in.TaskID, in.Type, in.Title, in.Message, metadata)
	n, err := scanNotification(row)
	if err != nil {
		return nil, fmt.Errorf("creating notification for user %d: %w", in.UserID, err)
	}
	return n, nil
}

func (r *notificationRepository) List(ctx context.Context, userID int64, limit int) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + `
	FROM notifications
	WHERE user_id = $1
	ORDER BY created_at DESC, id DESC
	LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, listLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing notifications for user %d: %w", userID, err)
	}
	defer rows.Close()

	notifications := make([]domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

func (r *notificationRepository) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications for user %d: %w", userID, err)
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND id = ANY($2)`
	if _, err := r.pool.Exec(ctx, query, userID, ids); err != nil {
		return fmt.Errorf("marking notifications read for user %d: %w", userID, err)
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID int64) error {
	const query = `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`
	if _, err := r.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("marking all notifications read for user %d: %w", userID, err)
	}
	return nil
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var (
		n        domain.Notification
		metadata *string
	)
	if err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.TaskID,
		&n.Type,
		&n.Title,
		&n.Message,
		&metadata,
		&n.IsRead,
		&n.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, err
	}
	if metadata != nil {
		n.Metadata = domain.ParseMetadata([]byte(*metadata))
	}
	return &n, nil
}

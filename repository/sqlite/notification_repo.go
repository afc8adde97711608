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

type notificationRepository struct {
	store *Store
}

// NewNotificationRepository returns a SQLite-backed NotificationRepository.
func NewNotificationRepository(store *Store) repository.NotificationRepository {
	return &notificationRepository{store: store}
}

const notificationColumns = `id, user_id, task_id, type, title, message, metadata, is_read, created_at`

func (r *notificationRepository) Create(ctx context.Context, in domain.NotificationInput) (*domain.Notification, error) {
	var metadata interface{}
	if in.Metadata.Len() > 0 {
		raw, err := in.Metadata.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("encoding notification metadata: %w", err)
		}
		metadata = string(raw)
	}

	result, err := r.store.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, task_id, type, title, message, metadata, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		in.UserID, in.TaskID, in.Type, in.Title, in.Message, metadata, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating notification for user %d: %w", in.UserID, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading notification id: %w", err)
	}

	row := r.store.db.QueryRowxContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	return scanNotification(row)
}

func (r *notificationRepository) List(ctx context.Context, userID int64, limit int) ([]domain.Notification, error) {
	rows, err := r.store.db.QueryxContext(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		userID, listLimit(limit),
	)
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
	if err := r.store.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`, userID,
	); err != nil {
		return 0, fmt.Errorf("counting unread notifications for user %d: %w", userID, err)
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND id IN (?)`, userID, ids)
	if err != nil {
		return fmt.Errorf("building mark-read query: %w", err)
	}
	if _, err := r.store.db.ExecContext(ctx, r.store.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("marking notifications read for user %d: %w", userID, err)
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID int64) error {
	if _, err := r.store.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID,
	); err != nil {
		return fmt.Errorf("marking all notifications read for user %d: %w", userID, err)
	}
	return nil
}

func scanNotification(row interface{ Scan(dest ...interface{}) error }) (*domain.Notification, error) {
	var (
		n        domain.Notification
		taskID   sql.NullInt64
		metadata sql.NullString
		isRead   int
	)
	if err := row.Scan(
		&n.ID,
		&n.UserID,
		&taskID,
		&n.Type,
		&n.Title,
		&n.Message,
		&metadata,
		&isRead,
		&n.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("scanning notification row: %w", err)
	}

	if taskID.Valid {
		id := taskID.Int64
		n.TaskID = &id
	}
	if metadata.Valid {
		n.Metadata = domain.ParseMetadata([]byte(metadata.String))
	}
	n.IsRead = isRead != 0
	return &n, nil
}

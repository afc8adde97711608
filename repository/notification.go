package repository

import (
	"context"

	"github.com/fastygo/taskshare/domain"
)

type NotificationRepository interface {
	Create(ctx context.Context, input domain.NotificationInput) (*domain.Notification, error)
	List(ctx context.Context, userID int64, limit int) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	// MarkRead only touches ids owned by userID.
	MarkRead(ctx context.Context, userID int64, ids []int64) error
	MarkAllRead(ctx context.Context, userID int64) error
}

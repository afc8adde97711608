package usecase

import (
	"context"

	"github.com/fastygo/taskshare/domain"
)

// Buffered entity and operation names.
const (
	EntityNotification = "notification"
	OperationCreate    = "create"
)

// OperationBuffer abstracts the outbox so use cases stay storage-agnostic.
type OperationBuffer interface {
	BufferNotification(ctx context.Context, input domain.NotificationInput) error
}

// Broadcaster pushes an event to every live session of a user. Users without
// sessions are skipped silently.
type Broadcaster interface {
	EmitToUser(ctx context.Context, userID int64, event string, payload interface{}) error
}

// Notifier is the slice of the notification service the task workflow needs.
type Notifier interface {
	// DeliverOrDefer creates one notification, handing it to the outbox when
	// storage fails.
	DeliverOrDefer(ctx context.Context, input domain.NotificationInput) *domain.Notification
	// NotifyUsers creates one notification per recipient in parallel. Failures
	// are per recipient and never abort the others.
	NotifyUsers(ctx context.Context, userIDs []int64, input domain.NotificationInput) []*domain.Notification
}

// TokenIssuer signs and verifies bearer tokens for principals.
type TokenIssuer interface {
	Sign(principal domain.Principal) (string, error)
	Parse(token string) (*domain.Principal, error)
}

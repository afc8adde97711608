package notification

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/pkg/logger"
	"github.com/fastygo/taskshare/repository"
	"github.com/fastygo/taskshare/usecase"
)

// DefaultLimit bounds ListNotifications when the caller passes no limit.
const DefaultLimit = 50

type UseCase struct {
	notifications repository.NotificationRepository
	broadcaster   usecase.Broadcaster
	buffer        usecase.OperationBuffer
	logger        *zap.Logger
}

// New wires the notification service. broadcaster and buffer may be nil: live
// pushes and the outbox are then skipped.
func New(
	notifications repository.NotificationRepository,
	broadcaster usecase.Broadcaster,
	buffer usecase.OperationBuffer,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		notifications: notifications,
		broadcaster:   broadcaster,
		buffer:        buffer,
		logger:        logger,
	}
}

// CreateNotification persists an unread notification and pushes it, with the
// recipient's fresh unread count, to the recipient's live sessions.
func (uc *UseCase) CreateNotification(ctx context.Context, input domain.NotificationInput) (*domain.Notification, error) {
	if input.UserID <= 0 || strings.TrimSpace(input.Type) == "" {
		return nil, domain.ErrInvalidPayload
	}

	created, err := uc.notifications.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	unread, err := uc.notifications.UnreadCount(ctx, input.UserID)
	if err != nil {
		logger.WithRequestID(ctx, uc.logger).Warn("unread count failed, skipping live push",
			zap.Int64("user_id", input.UserID), zap.Error(err))
		return created, nil
	}

	uc.emit(ctx, input.UserID, domain.EventNew, domain.NewNotificationEvent{
		Notification: created,
		UnreadCount:  unread,
	})
	return created, nil
}

// DeliverOrDefer creates a single notification. When storing it fails the
// input goes to the outbox instead, so the caller never sees the error.
func (uc *UseCase) DeliverOrDefer(ctx context.Context, input domain.NotificationInput) *domain.Notification {
	created, err := uc.CreateNotification(ctx, input)
	if err != nil {
		uc.deferDelivery(ctx, input, err)
		return nil
	}
	return created
}

// NotifyUsers fans CreateNotification out to every recipient concurrently.
// A failed recipient is handed to the outbox (or logged) and does not affect
// the others. The returned slice holds the notifications that were stored.
func (uc *UseCase) NotifyUsers(ctx context.Context, userIDs []int64, input domain.NotificationInput) []*domain.Notification {
	if len(userIDs) == 0 {
		return nil
	}

	results := make([]*domain.Notification, len(userIDs))
	var g errgroup.Group
	for i, userID := range userIDs {
		g.Go(func() error {
			in := input
			in.UserID = userID
			results[i] = uc.DeliverOrDefer(ctx, in)
			return nil
		})
	}
	_ = g.Wait()

	stored := make([]*domain.Notification, 0, len(results))
	for _, n := range results {
		if n != nil {
			stored = append(stored, n)
		}
	}
	return stored
}

func (uc *UseCase) ListNotifications(ctx context.Context, userID int64, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return uc.notifications.List(ctx, userID, limit)
}

func (uc *UseCase) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	return uc.notifications.UnreadCount(ctx, userID)
}

// MarkAsRead flips the given notifications of userID to read. Non-positive ids
// are dropped; an empty remainder still reports and pushes the current count.
func (uc *UseCase) MarkAsRead(ctx context.Context, userID int64, ids []int64) (int, error) {
	cleaned := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		cleaned = append(cleaned, id)
	}

	if len(cleaned) > 0 {
		if err := uc.notifications.MarkRead(ctx, userID, cleaned); err != nil {
			return 0, err
		}
	}

	unread, err := uc.notifications.UnreadCount(ctx, userID)
	if err != nil {
		return 0, err
	}

	uc.emit(ctx, userID, domain.EventMarkedRead, domain.MarkedReadEvent{IDs: cleaned, UnreadCount: unread})
	return unread, nil
}

// MarkAllAsRead flips every unread notification of userID.
func (uc *UseCase) MarkAllAsRead(ctx context.Context, userID int64) (int, error) {
	if err := uc.notifications.MarkAllRead(ctx, userID); err != nil {
		return 0, err
	}
	uc.emit(ctx, userID, domain.EventMarkedRead, domain.MarkedReadEvent{IDs: domain.MarkedAll, UnreadCount: 0})
	return 0, nil
}

// RegisterReplay lets the outbox processor re-run buffered notifications.
func (uc *UseCase) RegisterReplay(d *usecase.Dispatcher) {
	d.Register(usecase.CommandName(usecase.EntityNotification, usecase.OperationCreate), uc.replay)
}

func (uc *UseCase) replay(ctx context.Context, payload json.RawMessage) error {
	var input domain.NotificationInput
	if err := json.Unmarshal(payload, &input); err != nil {
		return err
	}
	_, err := uc.CreateNotification(ctx, input)
	return err
}

func (uc *UseCase) deferDelivery(ctx context.Context, input domain.NotificationInput, cause error) {
	log := logger.WithRequestID(ctx, uc.logger).With(
		zap.Int64("user_id", input.UserID),
		zap.String("type", input.Type),
	)
	if uc.buffer == nil || domain.IsDomainError(cause, domain.ErrCodeInvalid) {
		log.Error("notification dropped", zap.Error(cause))
		return
	}
	if err := uc.buffer.BufferNotification(ctx, input); err != nil {
		log.Error("notification dropped, outbox unavailable", zap.Error(cause), zap.NamedError("buffer_error", err))
		return
	}
	log.Warn("notification buffered", zap.Error(cause))
}

func (uc *UseCase) emit(ctx context.Context, userID int64, event string, payload interface{}) {
	if uc.broadcaster == nil {
		return
	}
	if err := uc.broadcaster.EmitToUser(ctx, userID, event, payload); err != nil {
		logger.WithRequestID(ctx, uc.logger).Warn("live push failed",
			zap.Int64("user_id", userID), zap.String("event", event), zap.Error(err))
	}
}

// ParseIDs converts loosely typed JSON ids (numbers or numeric strings) to
// positive integers, dropping everything else.
func ParseIDs(raw []interface{}) []int64 {
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		var f float64
		switch val := v.(type) {
		case float64:
			f = val
		case json.Number:
			parsed, err := val.Float64()
			if err != nil {
				continue
			}
			f = parsed
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil {
				continue
			}
			f = parsed
		default:
			continue
		}
		if f <= 0 || f != math.Trunc(f) || f > math.MaxInt64 {
			continue
		}
		ids = append(ids, int64(f))
	}
	return ids
}

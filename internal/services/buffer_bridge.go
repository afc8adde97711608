package services

import (
	"context"
	"encoding/json"

	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/internal/infrastructure/buffer"
	"github.com/fastygo/taskshare/usecase"
)

// BufferBridge adapts the outbox processor to the use case OperationBuffer port.
type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferNotification(ctx context.Context, input domain.NotificationInput) error {
	if b == nil || b.processor == nil || input.UserID <= 0 {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return b.processor.BufferOperation(ctx, buffer.Item{
		UserID:    input.UserID,
		Entity:    usecase.EntityNotification,
		Operation: usecase.OperationCreate,
		Data:      payload,
		Priority:  buffer.DefaultPriority,
	})
}

var _ usecase.OperationBuffer = (*BufferBridge)(nil)

package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// CommandHandler replays one serialized operation.
type CommandHandler func(ctx context.Context, payload json.RawMessage) error

// Dispatcher routes buffered operations to the use case that owns them, so the
// outbox processor does not depend on use case packages.
type Dispatcher struct {
	handlers map[string]CommandHandler
	mu       sync.RWMutex
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]CommandHandler)}
}

// CommandName joins an entity and an operation into a registry key.
func CommandName(entity, operation string) string {
	return entity + "." + operation
}

func (d *Dispatcher) Register(name string, handler CommandHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = handler
}

func (d *Dispatcher) Execute(ctx context.Context, name string, payload json.RawMessage) error {
	d.mu.RLock()
	handler, ok := d.handlers[name]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("command handler %s not registered", name)
	}
	return handler(ctx, payload)
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/internal/infrastructure/buffer"
)

type staticHealth bool

func (h staticHealth) IsOnline() bool { return bool(h) }

type fakeReplayer struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeReplayer) Execute(_ context.Context, name string, payload json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name+" "+string(payload))
	return f.err
}

func newProcessor(t *testing.T, online bool, replayer Replayer) (*BufferProcessor, *buffer.Store) {
	t.Helper()
	store, err := buffer.Open(filepath.Join(t.TempDir(), "outbox.db"), "")
	if err != nil {
		t.Fatalf("open outbox: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	bp := NewBufferProcessor(store, staticHealth(online), replayer, nil, ProcessorConfig{Interval: time.Minute, MaxRetries: 2})
	return bp, store
}

func TestBufferBridgeAndDrain(t *testing.T) {
	ctx := context.Background()
	replayer := &fakeReplayer{}
	bp, _ := newProcessor(t, true, replayer)
	bridge := NewBufferBridge(bp)

	if err := bridge.BufferNotification(ctx, domain.NotificationInput{UserID: 9, Type: "task_progress"}); err != nil {
		t.Fatalf("buffer: %v", err)
	}
	if err := bridge.BufferNotification(ctx, domain.NotificationInput{}); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("expected invalid payload, got %v", err)
	}
	if bp.Size() != 1 {
		t.Fatalf("expected 1 buffered item, got %d", bp.Size())
	}

	if err := bp.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(replayer.calls) != 1 || replayer.calls[0][:len("notification.create")] != "notification.create" {
		t.Fatalf("unexpected replays %v", replayer.calls)
	}
	if bp.Size() != 0 {
		t.Fatalf("expected drained outbox, got %d", bp.Size())
	}
}

func TestDrainSkipsWhileOffline(t *testing.T) {
	replayer := &fakeReplayer{}
	bp, store := newProcessor(t, false, replayer)
	if err := store.Enqueue(buffer.Item{Entity: "notification", Operation: "create"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := bp.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(replayer.calls) != 0 || bp.Size() != 1 {
		t.Fatalf("offline drain must not replay, calls=%d size=%d", len(replayer.calls), bp.Size())
	}
}

func TestDrainRetriesThenDrops(t *testing.T) {
	replayer := &fakeReplayer{err: errors.New("still down")}
	bp, store := newProcessor(t, true, replayer)
	if err := store.Enqueue(buffer.Item{Entity: "notification", Operation: "create"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := bp.Drain(context.Background()); err != nil {
		t.Fatalf("first drain: %v", err)
	}
	if bp.Size() != 1 {
		t.Fatalf("expected item requeued, size=%d", bp.Size())
	}

	if err := bp.Drain(context.Background()); err != nil {
		t.Fatalf("second drain: %v", err)
	}
	if bp.Size() != 0 {
		t.Fatalf("expected item dropped after max retries, size=%d", bp.Size())
	}
	if len(replayer.calls) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(replayer.calls))
	}
}

package buffer

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "outbox.db"), "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreOrdering(t *testing.T) {
	s := openStore(t)
	base := time.Now()

	items := []Item{
		{ID: "late", Priority: 3, Timestamp: base.Add(2 * time.Second), Data: json.RawMessage(`{}`)},
		{ID: "early", Priority: 3, Timestamp: base, Data: json.RawMessage(`{}`)},
		{ID: "urgent", Priority: 1, Timestamp: base.Add(5 * time.Second), Data: json.RawMessage(`{}`)},
	}
	for _, it := range items {
		if err := s.Enqueue(it); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	batch, err := s.GetBatch(10)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	want := []string{"urgent", "early", "late"}
	for i, id := range want {
		if batch[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, batch[i].ID)
		}
	}

	limited, _ := s.GetBatch(1)
	if len(limited) != 1 {
		t.Fatalf("expected 1 item, got %d", len(limited))
	}
}

func TestStoreRequeueAndRemove(t *testing.T) {
	s := openStore(t)
	if err := s.Enqueue(Item{UserID: 4, Entity: "notification", Operation: "create", Data: json.RawMessage(`{"userId":4}`)}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	batch, _ := s.GetBatch(10)
	if len(batch) != 1 || batch[0].Priority != DefaultPriority || batch[0].ID == "" {
		t.Fatalf("unexpected batch %+v", batch)
	}
	if batch[0].Command() != "notification.create" {
		t.Fatalf("unexpected command %s", batch[0].Command())
	}

	if err := s.Requeue(batch[0]); err != nil {
		t.Fatalf("requeue: %v", err)
	}
	size, _ := s.Size()
	if size != 1 {
		t.Fatalf("requeue must not duplicate, size=%d", size)
	}

	batch, _ = s.GetBatch(10)
	if batch[0].Retries != 1 {
		t.Fatalf("expected 1 retry, got %d", batch[0].Retries)
	}
	if err := s.Remove(batch[0]); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if size, _ := s.Size(); size != 0 {
		t.Fatalf("expected empty store, got %d", size)
	}
}

func TestStoreCleanup(t *testing.T) {
	s := openStore(t)
	old := time.Now().Add(-48 * time.Hour)
	for i, ts := range []time.Time{old, old.Add(time.Minute), time.Now()} {
		if err := s.Enqueue(Item{ID: string(rune('a' + i)), Timestamp: ts}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	removed, err := s.Cleanup(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if size, _ := s.Size(); size != 1 {
		t.Fatalf("expected 1 left, got %d", size)
	}
}

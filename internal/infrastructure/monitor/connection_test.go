package monitor

import (
	"context"
	"errors"
	"testing"
)

type fixedSize int

func (s fixedSize) Size() (int, error) { return int(s), nil }

func TestRefresh(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("refused") })

	t.Run("database only", func(t *testing.T) {
		m := New(Deps{Driver: "sqlite", Database: up, Buffer: fixedSize(3)}, 0, nil)
		m.Refresh()
		s := m.GetStatus()
		if !s.Database || s.Redis != nil || !s.Buffer || s.BufferSize != 3 {
			t.Fatalf("unexpected status %+v", s)
		}
		if !m.IsOnline() || !s.Healthy() {
			t.Fatal("expected online and healthy")
		}
	})

	t.Run("redis down degrades health only", func(t *testing.T) {
		m := New(Deps{Database: up, Redis: down}, 0, nil)
		m.Refresh()
		s := m.GetStatus()
		if s.Redis == nil || *s.Redis {
			t.Fatalf("expected redis down, got %+v", s.Redis)
		}
		if !m.IsOnline() || s.Healthy() {
			t.Fatal("expected online but unhealthy")
		}
	})

	t.Run("database down", func(t *testing.T) {
		m := New(Deps{Database: down}, 0, nil)
		m.Refresh()
		if m.IsOnline() {
			t.Fatal("expected offline")
		}
		m.Stop()
		m.Stop()
	})
}

package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/yndnr/quickvote-go/internal/storage/kvtest"
)

func TestStore_Compatibility(t *testing.T) {
	kvtest.Run(t, func(t *testing.T) kvtest.Store {
		s := New(WithShardCount(4))
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestStore_Close(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Set(ctx, "k", "v")
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if _, _, err := s.Get(ctx, "k"); !errors.Is(err, ErrClosed) {
		t.Errorf("Get() after Close error = %v, want ErrClosed", err)
	}
	if _, err := s.IncrementAndGet(ctx, "k"); !errors.Is(err, ErrClosed) {
		t.Errorf("IncrementAndGet() after Close error = %v, want ErrClosed", err)
	}
	if _, err := s.SetIfAbsent(ctx, "k", "v"); !errors.Is(err, ErrClosed) {
		t.Errorf("SetIfAbsent() after Close error = %v, want ErrClosed", err)
	}
}

func TestStore_IncrementNotInteger(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Set(ctx, "k", "nope")
	if _, err := s.IncrementAndGet(ctx, "k"); !errors.Is(err, ErrNotInteger) {
		t.Errorf("IncrementAndGet() error = %v, want ErrNotInteger", err)
	}
}

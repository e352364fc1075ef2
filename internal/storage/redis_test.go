package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/yndnr/quickvote-go/internal/storage/kvtest"
	"github.com/yndnr/quickvote-go/internal/storage/redistest"
)

// redisAddr returns QUICKVOTE_TEST_REDIS_ADDR, or an in-process server
// when it is unset.
func redisAddr(t *testing.T) string {
	t.Helper()
	if addr := os.Getenv("QUICKVOTE_TEST_REDIS_ADDR"); addr != "" {
		return addr
	}
	return redistest.Start(t).Addr()
}

func TestRedisStore_Compatibility(t *testing.T) {
	addr := redisAddr(t)
	kvtest.Run(t, func(t *testing.T) kvtest.Store {
		s, err := NewRedisStore(RedisConfig{Addr: addr, DialTimeout: 2 * time.Second}, nil)
		if err != nil {
			t.Fatalf("NewRedisStore() error = %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestRedisStore_Ping(t *testing.T) {
	s, err := NewRedisStore(RedisConfig{Addr: redisAddr(t)}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	_, err := NewRedisStore(RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond}, nil)
	if err == nil {
		t.Error("expected error for unreachable server")
	}
}

func TestNewRedisStore_RequiresAddr(t *testing.T) {
	if _, err := NewRedisStore(RedisConfig{}, nil); err == nil {
		t.Error("expected error for empty addr")
	}
}

func TestEscapeGlob(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"voter:", "voter:"},
		{"a*b", `a\*b`},
		{"a?[c]", `a\?\[c\]`},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		if got := escapeGlob(tt.in); got != tt.want {
			t.Errorf("escapeGlob(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

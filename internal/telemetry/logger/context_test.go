package logger

import (
	"context"
	"testing"
)

func TestWithLogger_FromContext(t *testing.T) {
	l, _ := newBufferLogger(t, "info", "json")
	ctx := WithLogger(context.Background(), l)

	if FromContext(ctx) != l {
		t.Error("FromContext() should return the stored logger")
	}
	if FromContext(context.Background()) != Logger(fallback.Load()) {
		t.Error("FromContext() without logger should return the fallback")
	}
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Errorf("RequestIDFromContext() = %q", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("RequestIDFromContext(empty) = %q", got)
	}
}

func TestL(t *testing.T) {
	l, buf := newBufferLogger(t, "info", "json")

	ctx := WithLogger(context.Background(), l)
	L(ctx).Info("without id")
	L(WithRequestID(ctx, "req-9")).Info("with id")

	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if _, ok := lines[0]["request_id"]; ok {
		t.Error("request_id should be absent")
	}
	if lines[1]["request_id"] != "req-9" {
		t.Errorf("request_id = %v, want req-9", lines[1]["request_id"])
	}
}

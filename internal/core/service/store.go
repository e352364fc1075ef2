package service

import (
	"context"

	"github.com/yndnr/quickvote-go/internal/core/domain"
)

// KVStore is the narrow key-value interface the voting service consumes.
//
// Implementations own no voting state and never retry. Every method may
// fail; the service reports any failure as domain.ErrStoreUnavailable.
type KVStore interface {
	// Get returns the value stored at key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set stores value at key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteMany removes every key in keys. An empty slice is a no-op.
	DeleteMany(ctx context.Context, keys []string) error

	// IncrementAndGet atomically adds one to the integer at key and returns
	// the new value. An absent key counts as zero.
	IncrementAndGet(ctx context.Context, key string) (int64, error)

	// ListKeys returns every key starting with prefix, in no particular order.
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

// ConditionalSetter is implemented by stores that can write a key only when
// it does not exist yet, in one atomic step.
type ConditionalSetter interface {
	// SetIfAbsent stores value at key unless the key exists.
	// stored reports whether this call wrote the value.
	SetIfAbsent(ctx context.Context, key, value string) (stored bool, err error)
}

// EventListener observes session transitions and recorded votes.
//
// Listeners are called synchronously after the store write succeeded and
// must not block for long. They cannot fail the operation.
type EventListener interface {
	OnEvent(ctx context.Context, ev domain.Event)
}

// Listeners fans an event out to several listeners in order.
type Listeners []EventListener

// OnEvent implements EventListener.
func (ls Listeners) OnEvent(ctx context.Context, ev domain.Event) {
	for _, l := range ls {
		if l != nil {
			l.OnEvent(ctx, ev)
		}
	}
}

// ListenerFunc adapts a function to EventListener.
type ListenerFunc func(ctx context.Context, ev domain.Event)

// OnEvent implements EventListener.
func (f ListenerFunc) OnEvent(ctx context.Context, ev domain.Event) {
	f(ctx, ev)
}

// Package kvtest is the compatibility kit every QuickVote storage backend
// must pass.
//
// A backend test calls Run with a factory; each subtest gets a fresh store
// and writes only under a random key namespace, so the kit is safe to run
// against a shared server.
package kvtest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/quickvote-go/internal/core/service"
)

// Store is the contract under test.
type Store interface {
	service.KVStore
	service.ConditionalSetter
}

// Factory returns a ready store. Cleanup is the factory's job (t.Cleanup).
type Factory func(t *testing.T) Store

// Run executes the full kit.
func Run(t *testing.T, factory Factory) {
	t.Run("GetSetDelete", func(t *testing.T) { testGetSetDelete(t, factory(t)) })
	t.Run("DeleteMany", func(t *testing.T) { testDeleteMany(t, factory(t)) })
	t.Run("IncrementAndGet", func(t *testing.T) { testIncrementAndGet(t, factory(t)) })
	t.Run("IncrementNotInteger", func(t *testing.T) { testIncrementNotInteger(t, factory(t)) })
	t.Run("ConcurrentIncrement", func(t *testing.T) { testConcurrentIncrement(t, factory(t)) })
	t.Run("ListKeys", func(t *testing.T) { testListKeys(t, factory(t)) })
	t.Run("ListKeysPatternChars", func(t *testing.T) { testListKeysPatternChars(t, factory(t)) })
	t.Run("SetIfAbsent", func(t *testing.T) { testSetIfAbsent(t, factory(t)) })
	t.Run("ConcurrentSetIfAbsent", func(t *testing.T) { testConcurrentSetIfAbsent(t, factory(t)) })
}

func namespace() string {
	return "kvtest-" + uuid.NewString() + ":"
}

func testGetSetDelete(t *testing.T, s Store) {
	require := require.New(t)
	ctx := context.Background()
	key := namespace() + "k"

	_, found, err := s.Get(ctx, key)
	require.NoError(err)
	require.False(found, "absent key reported as found")

	require.NoError(s.Set(ctx, key, "v1"))
	v, found, err := s.Get(ctx, key)
	require.NoError(err)
	require.True(found)
	require.Equal("v1", v)

	require.NoError(s.Set(ctx, key, "v2"))
	v, _, err = s.Get(ctx, key)
	require.NoError(err)
	require.Equal("v2", v)

	require.NoError(s.Set(ctx, key+"-empty", ""))
	v, found, err = s.Get(ctx, key+"-empty")
	require.NoError(err)
	require.True(found, "empty value must still be found")
	require.Empty(v)

	require.NoError(s.Delete(ctx, key))
	_, found, err = s.Get(ctx, key)
	require.NoError(err)
	require.False(found)

	require.NoError(s.Delete(ctx, key), "deleting an absent key is not an error")
}

func testDeleteMany(t *testing.T, s Store) {
	require := require.New(t)
	ctx := context.Background()
	ns := namespace()

	var keys []string
	for i := 0; i < 10; i++ {
		k := fmt.Sprintf("%s%d", ns, i)
		keys = append(keys, k)
		require.NoError(s.Set(ctx, k, "x"))
	}

	require.NoError(s.DeleteMany(ctx, nil))
	require.NoError(s.DeleteMany(ctx, append(keys[:5:5], ns+"never-set")))

	for i, k := range keys {
		_, found, err := s.Get(ctx, k)
		require.NoError(err)
		require.Equal(i >= 5, found, "key %s", k)
	}
}

func testIncrementAndGet(t *testing.T, s Store) {
	require := require.New(t)
	ctx := context.Background()
	key := namespace() + "votes:a"

	n, err := s.IncrementAndGet(ctx, key)
	require.NoError(err)
	require.Equal(int64(1), n, "absent key counts as zero")

	require.NoError(s.Set(ctx, key, "41"))
	n, err = s.IncrementAndGet(ctx, key)
	require.NoError(err)
	require.Equal(int64(42), n)

	v, _, err := s.Get(ctx, key)
	require.NoError(err)
	require.Equal("42", v, "counters are stored as decimal strings")
}

func testIncrementNotInteger(t *testing.T, s Store) {
	require := require.New(t)
	ctx := context.Background()
	key := namespace() + "text"

	require.NoError(s.Set(ctx, key, "abc"))
	_, err := s.IncrementAndGet(ctx, key)
	require.Error(err)

	v, _, err := s.Get(ctx, key)
	require.NoError(err)
	require.Equal("abc", v, "failed increment must not modify the value")
}

func testConcurrentIncrement(t *testing.T, s Store) {
	require := require.New(t)
	ctx := context.Background()
	key := namespace() + "counter"

	const workers, perWorker = 20, 25
	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if _, err := s.IncrementAndGet(ctx, key); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(err)
	}

	v, _, err := s.Get(ctx, key)
	require.NoError(err)
	require.Equal(fmt.Sprint(workers*perWorker), v)
}

func testListKeys(t *testing.T, s Store) {
	require := require.New(t)
	ctx := context.Background()
	ns := namespace()

	want := []string{ns + "voter:a@x", ns + "voter:b@x", ns + "voter:c@x"}
	for _, k := range want {
		require.NoError(s.Set(ctx, k, "a"))
	}
	require.NoError(s.Set(ctx, ns+"votes:a", "3"))
	require.NoError(s.Set(ctx, ns+"voterx", "not a voter"))

	got, err := s.ListKeys(ctx, ns+"voter:")
	require.NoError(err)
	sort.Strings(got)
	require.Equal(want, got)

	got, err = s.ListKeys(ctx, ns+"nothing:")
	require.NoError(err)
	require.Empty(got)
}

func testListKeysPatternChars(t *testing.T, s Store) {
	require := require.New(t)
	ctx := context.Background()
	ns := namespace()

	require.NoError(s.Set(ctx, ns+"a*b:1", "x"))
	require.NoError(s.Set(ctx, ns+"aXb:1", "x"))
	require.NoError(s.Set(ctx, ns+"a?[c]:1", "x"))

	got, err := s.ListKeys(ctx, ns+"a*b:")
	require.NoError(err)
	require.Equal([]string{ns + "a*b:1"}, got, "prefix is literal, not a pattern")

	got, err = s.ListKeys(ctx, ns+"a?[c]:")
	require.NoError(err)
	require.Equal([]string{ns + "a?[c]:1"}, got)
}

func testSetIfAbsent(t *testing.T, s Store) {
	require := require.New(t)
	ctx := context.Background()
	key := namespace() + "voter:x@y.com"

	stored, err := s.SetIfAbsent(ctx, key, "a")
	require.NoError(err)
	require.True(stored)

	stored, err = s.SetIfAbsent(ctx, key, "b")
	require.NoError(err)
	require.False(stored)

	v, _, err := s.Get(ctx, key)
	require.NoError(err)
	require.Equal("a", v, "losing SetIfAbsent must not overwrite")
}

func testConcurrentSetIfAbsent(t *testing.T, s Store) {
	require := require.New(t)
	ctx := context.Background()
	key := namespace() + "voter:race@y.com"

	const workers = 50
	var (
		wg     sync.WaitGroup
		stored atomic.Int32
		failed atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			ok, err := s.SetIfAbsent(ctx, key, fmt.Sprint(i))
			if err != nil {
				failed.Add(1)
				return
			}
			if ok {
				stored.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	require.Zero(failed.Load())
	require.Equal(int32(1), stored.Load(), "exactly one writer must win")
}

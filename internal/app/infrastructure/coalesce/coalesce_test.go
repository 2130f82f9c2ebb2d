package coalesce

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upper(calls *atomic.Int32, batches chan<- []string) FlushFunc[string, string] {
	return func(_ context.Context, keys []string) (map[string]string, error) {
		calls.Add(1)
		if batches != nil {
			batches <- keys
		}
		out := make(map[string]string, len(keys))
		for _, k := range keys {
			if k == "missing" {
				continue
			}
			out[k] = strings.ToUpper(k)
		}
		return out, nil
	}
}

func TestQueue_BatchesWithinDelay(t *testing.T) {
	var calls atomic.Int32
	batches := make(chan []string, 4)
	q := NewQueue(30*time.Millisecond, 100, upper(&calls, batches))
	defer q.Close()

	var wg sync.WaitGroup
	got := make([]string, 3)
	for i, key := range []string{"a", "b", "a"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := q.Get(context.Background(), key)
			assert.NoError(t, err)
			got[i] = v
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"A", "B", "A"}, got)
	assert.EqualValues(t, 1, calls.Load())
	assert.ElementsMatch(t, []string{"a", "b"}, <-batches)
}

func TestQueue_MaxBatchFlushesImmediately(t *testing.T) {
	var calls atomic.Int32
	q := NewQueue(time.Hour, 1, upper(&calls, nil))
	defer q.Close()

	v, err := q.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "X", v)
}

func TestQueue_Missing(t *testing.T) {
	var calls atomic.Int32
	q := NewQueue(time.Millisecond, 10, upper(&calls, nil))
	defer q.Close()

	_, err := q.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQueue_FlushError(t *testing.T) {
	boom := errors.New("boom")
	q := NewQueue[string, int](time.Millisecond, 10, func(context.Context, []string) (map[string]int, error) {
		return nil, boom
	})
	defer q.Close()

	_, err := q.Get(context.Background(), "k")
	assert.ErrorIs(t, err, boom)
}

func TestQueue_ContextCancel(t *testing.T) {
	var calls atomic.Int32
	q := NewQueue(time.Hour, 10, upper(&calls, nil))
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := q.Get(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_Close(t *testing.T) {
	var calls atomic.Int32
	q := NewQueue(time.Hour, 10, upper(&calls, nil))

	errc := make(chan error, 1)
	go func() {
		_, err := q.Get(context.Background(), "k")
		errc <- err
	}()

	require.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return len(q.order) == 1
	}, time.Second, time.Millisecond)

	q.Close()
	assert.ErrorIs(t, <-errc, ErrClosed)
	assert.Zero(t, calls.Load())

	_, err := q.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrClosed)
}

package coalesce

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrNotFound = errors.New("key not found in batch result")
	ErrClosed   = errors.New("queue closed")
)

// FlushFunc получает уникальные ключи пачки в порядке поступления.
type FlushFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

type result[V any] struct {
	val V
	err error
}

// Queue собирает ключи, пока не наступит пауза delay (каждый новый ключ переносит срок)
// или не наберётся maxBatch, и выполняет один FlushFunc на всю пачку.
type Queue[K comparable, V any] struct {
	delay    time.Duration
	maxBatch int
	flush    FlushFunc[K, V]

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	order   []K
	waiters map[K][]chan result[V]
	timer   *time.Timer
	closed  bool
	wg      sync.WaitGroup
}

func NewQueue[K comparable, V any](delay time.Duration, maxBatch int, flush FlushFunc[K, V]) *Queue[K, V] {
	ctx, cancel := context.WithCancel(context.Background())
	if maxBatch <= 0 {
		maxBatch = 100
	}
	return &Queue[K, V]{
		delay:    delay,
		maxBatch: maxBatch,
		flush:    flush,
		ctx:      ctx,
		cancel:   cancel,
		waiters:  make(map[K][]chan result[V]),
	}
}

// Get ставит ключ в текущую пачку и ждёт её результата.
func (q *Queue[K, V]) Get(ctx context.Context, key K) (V, error) {
	ch := make(chan result[V], 1)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		var zero V
		return zero, ErrClosed
	}

	if _, queued := q.waiters[key]; !queued {
		q.order = append(q.order, key)
	}
	q.waiters[key] = append(q.waiters[key], ch)

	if len(q.order) >= q.maxBatch {
		q.fireLocked()
	} else if q.timer == nil {
		q.timer = time.AfterFunc(q.delay, q.onTimer)
	} else {
		q.timer.Reset(q.delay)
	}
	q.mu.Unlock()

	select {
	case r := <-ch:
		return r.val, r.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Close отменяет текущий сброс и отвечает всем ожидающим ErrClosed.
func (q *Queue[K, V]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	waiters := q.waiters
	q.waiters = make(map[K][]chan result[V])
	q.order = nil
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()

	for _, chs := range waiters {
		for _, ch := range chs {
			ch <- result[V]{err: ErrClosed}
		}
	}
}

func (q *Queue[K, V]) onTimer() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.fireLocked()
}

func (q *Queue[K, V]) fireLocked() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	if len(q.order) == 0 || q.closed {
		return
	}

	keys := q.order
	waiters := q.waiters
	q.order = nil
	q.waiters = make(map[K][]chan result[V])

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.deliver(keys, waiters)
	}()
}

func (q *Queue[K, V]) deliver(keys []K, waiters map[K][]chan result[V]) {
	vals, err := q.flush(q.ctx, keys)

	for _, key := range keys {
		r := result[V]{err: err}
		if err == nil {
			v, ok := vals[key]
			if ok {
				r.val = v
			} else {
				r.err = ErrNotFound
			}
		}
		for _, ch := range waiters[key] {
			ch <- r
		}
	}
}

package wizard

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrTimeout = errors.New("timed out waiting for input")

// Waiter lets a goroutine suspend until an event matching a predicate is
// delivered for its key. When several waits share a key, the newest one whose
// context is still live receives the event.
type Waiter[K comparable, V any] struct {
	mu    sync.Mutex
	waits map[K][]*wait[V]
}

type wait[V any] struct {
	ctx   context.Context
	ch    chan V
	match func(V) bool
}

func NewWaiter[K comparable, V any]() *Waiter[K, V] {
	return &Waiter[K, V]{waits: make(map[K][]*wait[V])}
}

// Wait blocks until Deliver hands over a matching value, the timeout lapses
// (ErrTimeout) or ctx is done (ctx.Err()).
func (w *Waiter[K, V]) Wait(ctx context.Context, key K, timeout time.Duration, match func(V) bool) (V, error) {
	var zero V
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	wt := &wait[V]{ctx: ctx, ch: make(chan V, 1), match: match}

	w.mu.Lock()
	w.waits[key] = append(w.waits[key], wt)
	w.mu.Unlock()

	defer w.remove(key, wt)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v := <-wt.ch:
		return v, nil
	case <-timer.C:
		// 取消与超时同时发生时以取消为准，被取代的会话不应再发超时通知
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, ErrTimeout
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Deliver hands v to the wait registered for key if its predicate accepts it.
// It reports whether the value was consumed.
func (w *Waiter[K, V]) Deliver(key K, v V) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	waits := w.waits[key]
	for i := len(waits) - 1; i >= 0; i-- {
		wt := waits[i]
		if wt.ctx.Err() != nil {
			continue
		}
		if wt.match != nil && !wt.match(v) {
			return false
		}
		w.removeLocked(key, wt)
		wt.ch <- v
		return true
	}
	return false
}

func (w *Waiter[K, V]) remove(key K, wt *wait[V]) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.removeLocked(key, wt)
}

func (w *Waiter[K, V]) removeLocked(key K, wt *wait[V]) {
	waits := w.waits[key]
	for i, other := range waits {
		if other == wt {
			waits = append(waits[:i], waits[i+1:]...)
			break
		}
	}
	if len(waits) == 0 {
		delete(w.waits, key)
	} else {
		w.waits[key] = waits
	}
}

// Pending returns the number of registered waits.
func (w *Waiter[K, V]) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, waits := range w.waits {
		n += len(waits)
	}
	return n
}

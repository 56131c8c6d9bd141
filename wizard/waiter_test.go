package wizard

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitUntilPending(t *testing.T, w *Waiter[string, string], n int) {
	t.Helper()
	require.Eventually(t, func() bool { return w.Pending() == n }, time.Second, time.Millisecond)
}

func TestWaiterDeliver(t *testing.T) {
	w := NewWaiter[string, string]()

	result := make(chan string, 1)
	go func() {
		v, err := w.Wait(context.Background(), "k", time.Second, func(s string) bool { return s != "skip" })
		assert.NoError(t, err)
		result <- v
	}()
	waitUntilPending(t, w, 1)

	assert.False(t, w.Deliver("other", "hello"))
	assert.False(t, w.Deliver("k", "skip"))
	assert.True(t, w.Deliver("k", "hello"))
	assert.False(t, w.Deliver("k", "again"))

	assert.Equal(t, "hello", <-result)
	waitUntilPending(t, w, 0)
}

func TestWaiterTimeout(t *testing.T) {
	w := NewWaiter[string, string]()
	_, err := w.Wait(context.Background(), "k", 10*time.Millisecond, nil)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 0, w.Pending())
}

func TestWaiterCancel(t *testing.T) {
	w := NewWaiter[string, string]()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := w.Wait(ctx, "k", time.Minute, nil)
		done <- err
	}()
	waitUntilPending(t, w, 1)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	waitUntilPending(t, w, 0)
}

// cancelledAfterRegister reports live on the first check and cancelled
// afterwards, while its Done channel never fires. This pins the moment a
// cancellation races the step timer.
type cancelledAfterRegister struct {
	context.Context
	checks atomic.Int32
}

func (c *cancelledAfterRegister) Done() <-chan struct{} { return nil }

func (c *cancelledAfterRegister) Err() error {
	if c.checks.Add(1) > 1 {
		return context.Canceled
	}
	return nil
}

func TestWaiterCancellationWinsOverTimeout(t *testing.T) {
	w := NewWaiter[string, string]()
	ctx := &cancelledAfterRegister{Context: context.Background()}

	_, err := w.Wait(ctx, "k", time.Millisecond, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 0, w.Pending())
}

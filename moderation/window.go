package moderation

import (
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// Tracker keeps a sliding window of violation timestamps per (guild, user).
// Windows live in memory only and are lost on restart.
type Tracker struct {
	window  time.Duration
	cap     int
	windows *xsync.MapOf[string, *violationWindow]
}

type violationWindow struct {
	mu     sync.Mutex
	stamps []time.Time
	// 已从 map 中移除，持有旧指针的调用方需要重新获取
	dead bool
}

func NewTracker(window time.Duration, cap int) *Tracker {
	return &Tracker{
		window:  window,
		cap:     cap,
		windows: xsync.NewMapOf[string, *violationWindow](),
	}
}

func windowKey(guildID, userID string) string {
	return guildID + ":" + userID
}

// Record appends now to the user's window and returns how many violations
// remain within the window measured back from now.
func (t *Tracker) Record(guildID, userID string, now time.Time) int {
	return t.RecordAndCheck(guildID, userID, now, nil)
}

// RecordAndCheck is Record with a decision step. check runs with the user's
// window locked and receives the new count; when it returns true the window is
// cleared before the lock is released. Concurrent violations of the same user
// are therefore decided one at a time.
func (t *Tracker) RecordAndCheck(guildID, userID string, now time.Time, check func(count int) bool) int {
	w := t.lock(windowKey(guildID, userID))
	defer w.mu.Unlock()

	w.stamps = append(w.stamps, now)
	w.purge(now, t.window)
	if t.cap > 0 && len(w.stamps) > t.cap {
		w.stamps = append([]time.Time(nil), w.stamps[len(w.stamps)-t.cap:]...)
	}
	count := len(w.stamps)
	if check != nil && check(count) {
		w.stamps = nil
	}
	return count
}

// lock returns the live window for key with its mutex held.
func (t *Tracker) lock(key string) *violationWindow {
	for {
		w, _ := t.windows.LoadOrCompute(key, func() *violationWindow {
			return &violationWindow{}
		})
		w.mu.Lock()
		if !w.dead {
			return w
		}
		w.mu.Unlock()
	}
}

// Count purges expired entries and returns the current count.
func (t *Tracker) Count(guildID, userID string, now time.Time) int {
	w, ok := t.windows.Load(windowKey(guildID, userID))
	if !ok {
		return 0
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.purge(now, t.window)
	return len(w.stamps)
}

// Reset clears the user's window entirely.
func (t *Tracker) Reset(guildID, userID string) {
	key := windowKey(guildID, userID)
	w, ok := t.windows.Load(key)
	if !ok {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dead {
		return
	}
	w.dead = true
	t.windows.Delete(key)
}

// Sweep drops windows whose newest entry has expired and returns how many were dropped.
func (t *Tracker) Sweep(now time.Time) int {
	dropped := 0
	t.windows.Range(func(key string, w *violationWindow) bool {
		w.mu.Lock()
		w.purge(now, t.window)
		if len(w.stamps) == 0 && !w.dead {
			w.dead = true
			t.windows.Delete(key)
			dropped++
		}
		w.mu.Unlock()
		return true
	})
	return dropped
}

// Size returns the number of tracked windows.
func (t *Tracker) Size() int {
	return t.windows.Size()
}

func (w *violationWindow) purge(now time.Time, window time.Duration) {
	keep := 0
	for keep < len(w.stamps) && now.Sub(w.stamps[keep]) > window {
		keep++
	}
	if keep > 0 {
		w.stamps = w.stamps[keep:]
	}
}

package bot

import (
	"context"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"ticket_guard/utils/database/actions"
)

const (
	sweepInterval   = time.Minute
	pruneInterval   = 24 * time.Hour
	actionRetention = 90 * 24 * time.Hour
)

// WindowSweeper drops idle violation windows.
type WindowSweeper interface {
	Sweep(now time.Time) int
}

// Cleaner forgets expired entries, e.g. a utils.Cooldown.
type Cleaner interface {
	Cleanup() int
}

// Scheduler runs the periodic maintenance tasks.
type Scheduler struct {
	sweeper  WindowSweeper
	cleaners []Cleaner
	db       *sqlx.DB
	now      func() time.Time

	cancel context.CancelFunc
	group  *errgroup.Group
}

func NewScheduler(sweeper WindowSweeper, db *sqlx.DB, cleaners ...Cleaner) *Scheduler {
	return &Scheduler{
		sweeper:  sweeper,
		cleaners: cleaners,
		db:       db,
		now:      time.Now,
	}
}

// Start begins all scheduled tasks.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.group, ctx = errgroup.WithContext(ctx)

	s.group.Go(func() error {
		s.every(ctx, sweepInterval, s.sweepWindows)
		return nil
	})
	if s.db != nil {
		s.group.Go(func() error {
			s.every(ctx, pruneInterval, s.pruneActions)
			return nil
		})
	}
}

// Stop terminates all scheduled tasks gracefully.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	log.Println("Stopping scheduler...")
	s.cancel()
	s.group.Wait()
	s.cancel = nil
	log.Println("Scheduler stopped.")
}

func (s *Scheduler) every(ctx context.Context, interval time.Duration, task func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			task()
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) sweepWindows() {
	if n := s.sweeper.Sweep(s.now()); n > 0 {
		log.Printf("[Scheduler] Dropped %d idle violation windows", n)
	}
	for _, c := range s.cleaners {
		c.Cleanup()
	}
}

func (s *Scheduler) pruneActions() {
	removed, err := actions.DeleteActionRecordsBefore(s.db, s.now().Add(-actionRetention))
	if err != nil {
		log.Printf("[Scheduler] Failed to prune action log: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("[Scheduler] Pruned %d old action records", removed)
	}
}

package moderation

import (
	"context"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"ticket_guard/platform"
)

// Resolver attributes a platform action to the user who performed it by
// reading the audit log.
type Resolver struct {
	adapter platform.Adapter
	delay   time.Duration
	limit   int
	now     func() time.Time
}

func NewResolver(adapter platform.Adapter, delay time.Duration, limit int) *Resolver {
	return &Resolver{
		adapter: adapter,
		delay:   delay,
		limit:   limit,
		now:     time.Now,
	}
}

// ResolveActor returns the actor of the most recent matching entry. The bool
// is false when nothing matched or the audit log could not be read; callers
// should then skip attribution.
func (r *Resolver) ResolveActor(ctx context.Context, guildID string, kind discordgo.AuditLogAction, targetID string, within time.Duration) (string, bool) {
	entry, ok := r.ResolveEntry(ctx, guildID, kind, targetID, within)
	if !ok {
		return "", false
	}
	return entry.ActorID, true
}

// ResolveEntry is ResolveActor returning the whole matched entry, for callers
// that must tell repeated lookups of the same action apart.
func (r *Resolver) ResolveEntry(ctx context.Context, guildID string, kind discordgo.AuditLogAction, targetID string, within time.Duration) (platform.AuditEntry, bool) {
	// 审计日志在操作发生后不会立即可见
	if r.delay > 0 {
		timer := time.NewTimer(r.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return platform.AuditEntry{}, false
		}
	}

	entries, err := r.adapter.AuditLog(guildID, kind, r.limit)
	if err != nil {
		if platform.IsPermissionError(err) {
			log.Printf("[Audit] Missing permission to read audit log in guild %s", guildID)
		} else {
			log.Printf("[Audit] Failed to read audit log in guild %s: %v", guildID, err)
		}
		return platform.AuditEntry{}, false
	}

	now := r.now()
	var best *platform.AuditEntry
	for i := range entries {
		entry := &entries[i]
		if now.Sub(entry.CreatedAt) > within {
			continue
		}
		if targetID != "" && entry.TargetID != targetID {
			continue
		}
		if best == nil || entry.CreatedAt.After(best.CreatedAt) {
			best = entry
		}
	}
	if best == nil || best.ActorID == "" {
		return platform.AuditEntry{}, false
	}
	return *best, true
}

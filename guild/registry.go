package guild

import (
	"log"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// Registry maps guild ID to its Service.
type Registry struct {
	opts     Options
	services *xsync.MapOf[string, *Service]
}

func NewRegistry(opts Options) *Registry {
	return &Registry{
		opts:     opts,
		services: xsync.NewMapOf[string, *Service](),
	}
}

func (r *Registry) Get(guildID string) (*Service, bool) {
	return r.services.Load(guildID)
}

// Ensure returns the guild's service, creating it on first use.
func (r *Registry) Ensure(guildID string) *Service {
	s, loaded := r.services.LoadOrCompute(guildID, func() *Service {
		return NewService(guildID, r.opts)
	})
	if !loaded {
		log.Printf("[Guild] Service started for guild %s", guildID)
	}
	return s
}

// Remove stops and forgets the guild's service.
func (r *Registry) Remove(guildID string) {
	s, ok := r.services.LoadAndDelete(guildID)
	if !ok {
		return
	}
	s.Close()
	log.Printf("[Guild] Service stopped for guild %s", guildID)
}

func (r *Registry) Len() int {
	return r.services.Size()
}

// Sweep drops idle violation windows in every guild and returns how many were removed.
func (r *Registry) Sweep(now time.Time) int {
	total := 0
	r.services.Range(func(_ string, s *Service) bool {
		total += s.Sweep(now)
		return true
	})
	return total
}

// Close stops every service.
func (r *Registry) Close() {
	r.services.Range(func(id string, _ *Service) bool {
		r.Remove(id)
		return true
	})
}

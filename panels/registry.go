package panels

import (
	"errors"
	"fmt"
	"sync"

	"ticket_guard/model"
)

var (
	ErrUnknownPanel  = errors.New("unknown panel")
	ErrPanelNotReady = errors.New("panel is not configured")
)

// Registry holds one guild's panels. Each panel has its own lock so ticket
// numbers for different panels are allocated independently.
type Registry struct {
	keys    []string
	entries map[string]*entry
}

type entry struct {
	mu    sync.Mutex
	panel model.Panel
}

// NewRegistry creates an empty panel for every key. The key set is fixed.
func NewRegistry(keys ...string) *Registry {
	r := &Registry{entries: make(map[string]*entry, len(keys))}
	for _, k := range keys {
		if _, dup := r.entries[k]; dup {
			continue
		}
		r.keys = append(r.keys, k)
		r.entries[k] = &entry{panel: model.Panel{Key: k}}
	}
	return r
}

func (r *Registry) lookup(key string) (*entry, error) {
	e, ok := r.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPanel, key)
	}
	return e, nil
}

// Get returns a copy of the panel.
func (r *Registry) Get(key string) (model.Panel, bool) {
	e, err := r.lookup(key)
	if err != nil {
		return model.Panel{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.panel, true
}

// Commit replaces every editable field. The ticket counter is kept.
func (r *Registry) Commit(key string, fields model.PanelFields) error {
	e, err := r.lookup(key)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panel.PanelFields = fields
	return nil
}

// Ready returns ErrPanelNotReady if tickets can't be opened against the panel yet.
func (r *Registry) Ready(key string) (model.Panel, error) {
	e, err := r.lookup(key)
	if err != nil {
		return model.Panel{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.panel.Ready() {
		return e.panel, fmt.Errorf("%w: %s", ErrPanelNotReady, key)
	}
	return e.panel, nil
}

// NextTicketNumber increments the panel's counter and returns the new value.
// Numbers are never reused, even when the ticket channel fails to be created.
func (r *Registry) NextTicketNumber(key string) (int, error) {
	e, err := r.lookup(key)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panel.TicketCounter++
	return e.panel.TicketCounter, nil
}

// Keys returns the registered panel keys in the order given to NewRegistry.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.keys...)
}

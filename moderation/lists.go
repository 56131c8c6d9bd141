package moderation

import (
	"sort"
	"sync"
)

type ListKind string

const (
	// Whitelist 中的用户不会被禁言、踢出或封禁
	Whitelist ListKind = "whitelist"
	// Blacklist 目前只用于在日志中标记
	Blacklist ListKind = "blacklist"
)

// Lists holds one guild's whitelist and blacklist.
type Lists struct {
	mu    sync.RWMutex
	users map[ListKind]map[string]struct{}
}

func NewLists(whitelisted ...string) *Lists {
	l := &Lists{
		users: map[ListKind]map[string]struct{}{
			Whitelist: make(map[string]struct{}),
			Blacklist: make(map[string]struct{}),
		},
	}
	for _, id := range whitelisted {
		if id != "" {
			l.users[Whitelist][id] = struct{}{}
		}
	}
	return l
}

// Add returns false if the user was already on the list.
func (l *Lists) Add(kind ListKind, userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	set, ok := l.users[kind]
	if !ok {
		return false
	}
	if _, exists := set[userID]; exists {
		return false
	}
	set[userID] = struct{}{}
	return true
}

// Remove returns false if the user was not on the list.
func (l *Lists) Remove(kind ListKind, userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	set, ok := l.users[kind]
	if !ok {
		return false
	}
	if _, exists := set[userID]; !exists {
		return false
	}
	delete(set, userID)
	return true
}

func (l *Lists) Contains(kind ListKind, userID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.users[kind][userID]
	return ok
}

func (l *Lists) IsWhitelisted(userID string) bool {
	return l.Contains(Whitelist, userID)
}

// Members returns the list sorted by user ID.
func (l *Lists) Members(kind ListKind) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]string, 0, len(l.users[kind]))
	for id := range l.users[kind] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

package moderation

import (
	"log"
	"sync"
	"time"

	"ticket_guard/model"
)

type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionTimeout
	ActionKick
	ActionBan
)

func (k ActionKind) String() string {
	switch k {
	case ActionTimeout:
		return "timeout"
	case ActionKick:
		return "kick"
	case ActionBan:
		return "ban"
	default:
		return "none"
	}
}

// Action is the outcome of one evaluation. Duration is only set for timeouts.
type Action struct {
	Kind     ActionKind
	Duration time.Duration
}

// Subject is the user being evaluated.
type Subject struct {
	UserID        string
	Administrator bool
}

// Engine decides what to do with a user whose window reached the threshold.
type Engine struct {
	policy model.Policy
	lists  *Lists

	mu       sync.Mutex
	timeouts map[string]int // userID -> timeouts issued by this engine
}

func NewEngine(policy model.Policy, lists *Lists) *Engine {
	return &Engine{
		policy:   policy,
		lists:    lists,
		timeouts: make(map[string]int),
	}
}

// Evaluate maps a violation count to an action. Callers must reset the
// user's window after any non-None result.
func (e *Engine) Evaluate(guildID string, subject Subject, count int) Action {
	if count < e.policy.Threshold {
		return Action{Kind: ActionNone}
	}
	if e.lists != nil && e.lists.IsWhitelisted(subject.UserID) {
		log.Printf("[Moderation] User %s in guild %s reached %d violations but is whitelisted", subject.UserID, guildID, count)
		return Action{Kind: ActionNone}
	}
	// 禁言对管理员无效，直接踢出
	if subject.Administrator {
		return Action{Kind: ActionKick}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.policy.BanAfterTimeouts > 0 && e.timeouts[subject.UserID] >= e.policy.BanAfterTimeouts {
		delete(e.timeouts, subject.UserID)
		return Action{Kind: ActionBan}
	}
	e.timeouts[subject.UserID]++
	return Action{Kind: ActionTimeout, Duration: e.policy.TimeoutDuration}
}

package moderation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"

	"ticket_guard/model"
)

var inviteRegex = regexp.MustCompile(`(?i)(discord\.gg|discord(app)?\.com/invite)/[a-z0-9-]+`)

// Rules decides whether a message counts as a violation.
type Rules struct {
	massMentionLimit int
	inviteFilter     bool
	blockedWords     []string
}

func NewRules(policy model.Policy) *Rules {
	words := make([]string, 0, len(policy.BlockedWords))
	for _, w := range policy.BlockedWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			words = append(words, w)
		}
	}
	return &Rules{
		massMentionLimit: policy.MassMentionLimit,
		inviteFilter:     policy.InviteFilter,
		blockedWords:     words,
	}
}

// Check returns the reason the message violates a rule, or "" if it doesn't.
func (r *Rules) Check(m *discordgo.Message) string {
	if r.inviteFilter && inviteRegex.MatchString(m.Content) {
		return "invite link"
	}

	mentions := len(m.Mentions) + len(m.MentionRoles)
	if m.MentionEveryone {
		mentions += r.massMentionLimit
	}
	if r.massMentionLimit > 0 && mentions >= r.massMentionLimit {
		return fmt.Sprintf("mass mention (%d)", mentions)
	}

	if len(r.blockedWords) > 0 {
		content := strings.ToLower(m.Content)
		for _, w := range r.blockedWords {
			if strings.Contains(content, w) {
				return "blocked word"
			}
		}
	}
	return ""
}

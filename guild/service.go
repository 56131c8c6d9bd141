// Package guild 把一个服务器的审核状态与工单流程组合在一起
package guild

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/puzpuzpuz/xsync/v3"

	"ticket_guard/model"
	"ticket_guard/moderation"
	"ticket_guard/panels"
	"ticket_guard/platform"
	"ticket_guard/tickets"
	"ticket_guard/utils"
	"ticket_guard/wizard"
)

// ActionLog persists executed escalation actions. A nil ActionLog disables the history.
type ActionLog interface {
	Record(record model.ActionRecord) error
	History(guildID, userID string, limit int) ([]model.ActionRecord, error)
}

// Options are shared by every guild service.
type Options struct {
	Adapter      platform.Adapter
	Policy       model.Policy
	LogChannelID string
	Whitelist    []string
	Actions      ActionLog
}

// Service owns all per-guild state. Nothing in it is shared with other guilds.
type Service struct {
	GuildID string

	adapter      platform.Adapter
	policy       model.Policy
	logChannelID string
	actions      ActionLog
	now          func() time.Time
	// 已计入 webhook 警告的审计日志条目 ID
	seenAudit *xsync.MapOf[string, time.Time]

	Tracker  *moderation.Tracker
	Lists    *moderation.Lists
	Engine   *moderation.Engine
	Resolver *moderation.Resolver
	Webhooks *moderation.WebhookStrikes
	Rules    *moderation.Rules
	Panels   *panels.Registry
	Wizard   *wizard.Manager
	Tickets  *tickets.Manager
}

func NewService(guildID string, opts Options) *Service {
	policy := opts.Policy
	lists := moderation.NewLists(opts.Whitelist...)
	registry := panels.NewRegistry(model.PanelKeys...)

	return &Service{
		GuildID:      guildID,
		adapter:      opts.Adapter,
		policy:       policy,
		logChannelID: opts.LogChannelID,
		actions:      opts.Actions,
		now:          time.Now,
		seenAudit:    xsync.NewMapOf[string, time.Time](),

		Tracker:  moderation.NewTracker(policy.Window(), policy.WindowCap),
		Lists:    lists,
		Engine:   moderation.NewEngine(policy, lists),
		Resolver: moderation.NewResolver(opts.Adapter, policy.AuditDelay, policy.AuditScanLimit),
		Webhooks: moderation.NewWebhookStrikes(policy.WebhookStrikesBeforeKick),
		Rules:    moderation.NewRules(policy),
		Panels:   registry,
		Wizard:   wizard.NewManager(opts.Adapter, registry, policy),
		Tickets:  tickets.NewManager(guildID, opts.Adapter, registry, policy),
	}
}

// Verdict describes what HandleMessage did with a message.
type Verdict struct {
	ConsumedByWizard bool
	Reason           string
	Count            int
	Action           moderation.Action
	Err              error
}

// HandleMessage routes a new message to a waiting wizard, otherwise checks it
// against the violation rules and escalates when the window fills up.
func (s *Service) HandleMessage(m *discordgo.Message) Verdict {
	if m.Author == nil || m.Author.Bot || m.Author.ID == s.adapter.BotUserID() {
		return Verdict{}
	}
	if s.Wizard.HandleMessage(m.ChannelID, m.Author.ID, m.Content) {
		return Verdict{ConsumedByWizard: true}
	}

	reason := s.Rules.Check(m)
	if reason == "" {
		return Verdict{}
	}
	userID := m.Author.ID

	if s.Lists.Contains(moderation.Blacklist, userID) {
		utils.LogWarn(s.adapter, s.logChannelID, "Moderation", "Blacklisted user violation",
			fmt.Sprintf("<@%s> in <#%s>: %s", userID, m.ChannelID, reason))
	}

	whitelisted := s.Lists.IsWhitelisted(userID)
	if !whitelisted {
		if err := s.adapter.DeleteMessage(m.ChannelID, m.ID); err != nil {
			s.logPlatformError("delete message", userID, err)
		}
	}

	now := s.now()
	var action moderation.Action
	count := s.Tracker.RecordAndCheck(s.GuildID, userID, now, func(count int) bool {
		admin, err := s.adapter.IsAdministrator(s.GuildID, userID)
		if err != nil {
			log.Printf("[Moderation] Failed to check permissions of %s in guild %s: %v", userID, s.GuildID, err)
		}
		action = s.Engine.Evaluate(s.GuildID, moderation.Subject{UserID: userID, Administrator: admin}, count)
		return action.Kind != moderation.ActionNone
	})

	verdict := Verdict{Reason: reason, Count: count, Action: action}
	if action.Kind == moderation.ActionNone {
		return verdict
	}
	// 窗口已在锁内清零，同一用户的后续违规从零开始计数
	verdict.Err = s.apply(userID, action, fmt.Sprintf("%d violations in %ds: %s", count, s.policy.WindowSeconds, reason), count, now)
	return verdict
}

// HandleWebhooksUpdate attributes a webhook change to its creator and counts
// a strike against the guild. Each audit entry counts once, so edits and
// deletes of an already counted webhook do not strike again. Reaching the
// strike limit kicks the creator.
func (s *Service) HandleWebhooksUpdate(ctx context.Context, channelID string) {
	entry, ok := s.Resolver.ResolveEntry(ctx, s.GuildID, discordgo.AuditLogActionWebhookCreate, "", s.policy.AuditWithin)
	if !ok {
		return
	}
	if _, seen := s.seenAudit.LoadOrStore(entry.ID, entry.CreatedAt); seen {
		return
	}
	actorID := entry.ActorID
	if actorID == s.adapter.BotUserID() || s.Lists.IsWhitelisted(actorID) {
		return
	}

	count, triggered := s.Webhooks.Strike()
	log.Printf("[Moderation] Unauthorized webhook in channel %s of guild %s by %s (strike %d)", channelID, s.GuildID, actorID, count)
	if !triggered {
		return
	}

	reason := fmt.Sprintf("created %d unauthorized webhooks", count)
	if err := s.apply(actorID, moderation.Action{Kind: moderation.ActionKick}, reason, count, s.now()); err != nil {
		log.Printf("[Moderation] Webhook strike action against %s failed: %v", actorID, err)
	}
}

func (s *Service) apply(userID string, action moderation.Action, reason string, count int, now time.Time) error {
	var err error
	switch action.Kind {
	case moderation.ActionTimeout:
		err = s.adapter.TimeoutMember(s.GuildID, userID, now.Add(action.Duration))
	case moderation.ActionKick:
		err = s.adapter.KickMember(s.GuildID, userID, reason)
	case moderation.ActionBan:
		err = s.adapter.BanMember(s.GuildID, userID, reason, s.policy.BanDeleteDays)
	}

	if err != nil {
		s.logPlatformError(action.Kind.String(), userID, err)
	} else {
		log.Printf("[Moderation] %s applied to %s in guild %s: %s", action.Kind, userID, s.GuildID, reason)
		utils.LogInfo(s.adapter, s.logChannelID, "Moderation", action.Kind.String(), fmt.Sprintf("<@%s>: %s", userID, reason))
	}

	if s.actions != nil {
		record := model.ActionRecord{
			GuildID:        s.GuildID,
			UserID:         userID,
			ActionType:     action.Kind.String(),
			Reason:         reason,
			ViolationCount: count,
			DurationSecs:   int64(action.Duration / time.Second),
			Succeeded:      err == nil,
			Timestamp:      now.Unix(),
		}
		if recErr := s.actions.Record(record); recErr != nil {
			log.Printf("[Moderation] Failed to record %s for %s: %v", action.Kind, userID, recErr)
		}
	}
	return err
}

func (s *Service) logPlatformError(op, userID string, err error) {
	if platform.IsPermissionError(err) {
		log.Printf("[Moderation] Missing permission to %s for %s in guild %s, skipped", op, userID, s.GuildID)
		return
	}
	log.Printf("[Moderation] Failed to %s for %s in guild %s: %v", op, userID, s.GuildID, err)
	utils.LogError(s.adapter, s.logChannelID, "Moderation", op, fmt.Sprintf("<@%s>: %v", userID, err))
}

// History returns the newest recorded actions against userID.
func (s *Service) History(userID string, limit int) ([]model.ActionRecord, error) {
	if s.actions == nil {
		return nil, nil
	}
	return s.actions.History(s.GuildID, userID, limit)
}

// Sweep drops violation windows that have been idle for a full window and
// forgets audit entries too old to be matched again.
func (s *Service) Sweep(now time.Time) int {
	s.seenAudit.Range(func(id string, createdAt time.Time) bool {
		if now.Sub(createdAt) > s.policy.AuditWithin {
			s.seenAudit.Delete(id)
		}
		return true
	})
	return s.Tracker.Sweep(now)
}

// Close stops wizard sessions and waits for pending ticket deletions.
func (s *Service) Close() {
	s.Wizard.Close()
	s.Tickets.Close()
}

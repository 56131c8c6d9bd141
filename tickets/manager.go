package tickets

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"ticket_guard/model"
	"ticket_guard/panels"
	"ticket_guard/platform"
	"ticket_guard/utils"
)

var (
	ErrNotTicketChannel = errors.New("this channel is not a ticket")
	ErrNotRequester     = errors.New("only the user who asked to close the ticket can confirm")
)

type CloseOutcome int

const (
	CloseScheduled CloseOutcome = iota
	CloseExpired
	CloseDeclined
)

func (o CloseOutcome) String() string {
	switch o {
	case CloseScheduled:
		return "scheduled"
	case CloseExpired:
		return "expired"
	case CloseDeclined:
		return "declined"
	}
	return "unknown"
}

// Prompt is the ephemeral yes/no question shown before a ticket is closed.
type Prompt struct {
	Content    string
	Components []discordgo.MessageComponent
}

type confirmation struct {
	nonce       string
	requesterID string
	issuedAt    time.Time
	timer       *time.Timer
}

// Manager opens and closes ticket channels for one guild.
type Manager struct {
	guildID  string
	adapter  platform.Adapter
	registry *panels.Registry
	policy   model.Policy
	now      func() time.Time
	newNonce func() string

	mu      sync.Mutex
	pending map[string]*confirmation // channelID -> open close confirmation
	wg      sync.WaitGroup
}

func NewManager(guildID string, adapter platform.Adapter, registry *panels.Registry, policy model.Policy) *Manager {
	return &Manager{
		guildID:  guildID,
		adapter:  adapter,
		registry: registry,
		policy:   policy,
		now:      time.Now,
		newNonce: func() string { return uuid.NewString() },
		pending:  make(map[string]*confirmation),
	}
}

// ChannelName is the name given to the n-th ticket of a panel.
func ChannelName(panelKey string, n int) string {
	return fmt.Sprintf("ticket-%s-%d", panelKey, n)
}

// Open creates a private ticket channel for requesterID. Nothing is created
// when the panel is not ready.
func (m *Manager) Open(panelKey, requesterID string) (string, error) {
	panel, err := m.registry.Ready(panelKey)
	if err != nil {
		return "", err
	}

	n, err := m.registry.NextTicketNumber(panelKey)
	if err != nil {
		return "", err
	}

	allow := int64(discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionReadMessageHistory)
	overwrites := []*discordgo.PermissionOverwrite{
		// @everyone 的角色 ID 与服务器 ID 相同
		{ID: m.guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{ID: requesterID, Type: discordgo.PermissionOverwriteTypeMember, Allow: allow},
	}
	if panel.ModeratorRoleID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{ID: panel.ModeratorRoleID, Type: discordgo.PermissionOverwriteTypeRole, Allow: allow})
	}

	ch, err := m.adapter.CreateChannel(m.guildID, discordgo.GuildChannelCreateData{
		Name:                 ChannelName(panelKey, n),
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                Topic(panelKey, requesterID),
		ParentID:             panel.TicketCategoryID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		if platform.IsPermissionError(err) {
			log.Printf("[Tickets] Missing permission to create ticket %d for %s in guild %s", n, panelKey, m.guildID)
		}
		return "", fmt.Errorf("failed to create ticket channel: %w", err)
	}
	log.Printf("[Tickets] Opened %s (%s) for user %s in guild %s", ch.Name, ch.ID, requesterID, m.guildID)

	ping := fmt.Sprintf("<@%s>", requesterID)
	if panel.ModeratorRoleID != "" {
		ping = fmt.Sprintf("<@&%s> %s", panel.ModeratorRoleID, ping)
	}
	m.send(ch.ID, &discordgo.MessageSend{Content: ping})
	m.send(ch.ID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       panel.DisplayName,
			Description: "Please be patient, support will be with you shortly.",
			Color:       0x2ECC71,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "❌ Close ticket", Style: discordgo.DangerButton, CustomID: utils.TicketCloseID()},
				},
			},
		},
	})

	return ch.ID, nil
}

// RequestClose starts the confirmation dialog for closing channelID. Asking
// again replaces the previous confirmation.
func (m *Manager) RequestClose(channelID, requesterID string) (Prompt, error) {
	ch, err := m.adapter.Channel(channelID)
	if err != nil {
		return Prompt{}, fmt.Errorf("failed to get channel %s: %w", channelID, err)
	}
	if _, _, ok := ParseTopic(ch.Topic); !ok {
		return Prompt{}, ErrNotTicketChannel
	}

	c := &confirmation{
		nonce:       m.newNonce(),
		requesterID: requesterID,
		issuedAt:    m.now(),
	}

	m.mu.Lock()
	if old, ok := m.pending[channelID]; ok {
		old.timer.Stop()
	}
	m.pending[channelID] = c
	c.timer = time.AfterFunc(m.policy.CloseConfirmTTL, func() {
		m.expire(channelID, c.nonce)
	})
	m.mu.Unlock()

	yes, no := utils.CloseConfirmIDs(channelID, c.nonce)
	return Prompt{
		Content: "Do you really want to close this ticket?",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "Yes", Style: discordgo.SuccessButton, CustomID: yes},
					discordgo.Button{Label: "No", Style: discordgo.SecondaryButton, CustomID: no},
				},
			},
		},
	}, nil
}

func (m *Manager) expire(channelID, nonce string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.pending[channelID]; ok && c.nonce == nonce {
		delete(m.pending, channelID)
		log.Printf("[Tickets] Close confirmation for channel %s expired", channelID)
	}
}

// take removes and returns the confirmation if nonce still refers to it.
func (m *Manager) take(channelID, nonce string) (*confirmation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.pending[channelID]
	if !ok || c.nonce != nonce {
		return nil, false
	}
	delete(m.pending, channelID)
	c.timer.Stop()
	return c, true
}

// ConfirmClose deletes the channel after the grace delay, unless the
// confirmation has expired or was superseded.
func (m *Manager) ConfirmClose(channelID, nonce, userID string) (CloseOutcome, error) {
	m.mu.Lock()
	c, ok := m.pending[channelID]
	if !ok || c.nonce != nonce {
		m.mu.Unlock()
		return CloseExpired, nil
	}
	if c.requesterID != userID {
		m.mu.Unlock()
		return CloseExpired, ErrNotRequester
	}
	delete(m.pending, channelID)
	c.timer.Stop()
	m.mu.Unlock()

	if m.now().Sub(c.issuedAt) > m.policy.CloseConfirmTTL {
		log.Printf("[Tickets] Rejected late close confirmation for channel %s", channelID)
		return CloseExpired, nil
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if m.policy.CloseGrace > 0 {
			time.Sleep(m.policy.CloseGrace)
		}
		if err := m.adapter.DeleteChannel(channelID); err != nil {
			log.Printf("[Tickets] Failed to delete ticket channel %s: %v", channelID, err)
			return
		}
		log.Printf("[Tickets] Closed ticket channel %s (confirmed by %s)", channelID, userID)
	}()
	return CloseScheduled, nil
}

// DeclineClose drops the confirmation; the channel stays open.
func (m *Manager) DeclineClose(channelID, nonce string) CloseOutcome {
	m.take(channelID, nonce)
	return CloseDeclined
}

// Pending returns the number of open close confirmations.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Close drops all confirmations and waits for scheduled deletions.
func (m *Manager) Close() {
	m.mu.Lock()
	for id, c := range m.pending {
		c.timer.Stop()
		delete(m.pending, id)
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Manager) send(channelID string, msg *discordgo.MessageSend) {
	if _, err := m.adapter.SendMessage(channelID, msg); err != nil {
		log.Printf("[Tickets] Failed to send message to channel %s: %v", channelID, err)
	}
}

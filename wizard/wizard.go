package wizard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"ticket_guard/model"
	"ticket_guard/panels"
	"ticket_guard/platform"
	"ticket_guard/utils"
)

var (
	ErrNoSession = errors.New("no active setup session")
	ErrNotOwner  = errors.New("only the user who started the setup can use these buttons")
)

type Step int

const (
	StepName Step = iota
	StepEmbedText
	StepModRole
	StepCategory
	StepConfirm
)

func (s Step) String() string {
	switch s {
	case StepName:
		return "name"
	case StepEmbedText:
		return "embed_text"
	case StepModRole:
		return "mod_role"
	case StepCategory:
		return "category"
	case StepConfirm:
		return "confirm"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// 确认步骤的按钮
const (
	ControlConfirm = "yes"
	ControlCancel  = "no"
	ControlRestart = "restart"
)

// Key identifies a session: one per owner per channel.
type Key struct {
	OwnerID   string
	ChannelID string
}

// Input is either a chat message (Text) or a button press (Control).
type Input struct {
	Text    string
	Control string
}

type Session struct {
	Key
	PanelKey  string
	CreatedAt time.Time

	mu     sync.Mutex
	step   Step
	fields model.PanelFields

	cancel context.CancelFunc
	done   chan struct{}
}

// Step returns the step the session is currently waiting on.
func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Done is closed once the session has ended for any reason.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) setStep(step Step) {
	s.mu.Lock()
	s.step = step
	s.mu.Unlock()
}

// Manager runs panel setup sessions for one guild.
type Manager struct {
	adapter  platform.Adapter
	registry *panels.Registry
	policy   model.Policy
	waiter   *Waiter[Key, Input]
	now      func() time.Time

	mu       sync.Mutex
	sessions map[Key]*Session
	wg       sync.WaitGroup
}

func NewManager(adapter platform.Adapter, registry *panels.Registry, policy model.Policy) *Manager {
	return &Manager{
		adapter:  adapter,
		registry: registry,
		policy:   policy,
		waiter:   NewWaiter[Key, Input](),
		now:      time.Now,
		sessions: make(map[Key]*Session),
	}
}

// Start begins a setup session for panelKey, silently replacing any session
// the owner already has in this channel.
func (m *Manager) Start(ctx context.Context, panelKey, ownerID, channelID string) (*Session, error) {
	if _, ok := m.registry.Get(panelKey); !ok {
		return nil, fmt.Errorf("%w: %s", panels.ErrUnknownPanel, panelKey)
	}

	sessCtx, cancel := context.WithCancel(ctx)
	s := &Session{
		Key:       Key{OwnerID: ownerID, ChannelID: channelID},
		PanelKey:  panelKey,
		CreatedAt: m.now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	m.mu.Lock()
	if old, ok := m.sessions[s.Key]; ok {
		log.Printf("[Wizard] Superseding %s setup by %s in channel %s", old.PanelKey, ownerID, channelID)
		old.cancel()
	}
	m.sessions[s.Key] = s
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(sessCtx, s)
	return s, nil
}

// HandleMessage offers a chat message to the session waiting in that channel.
// It reports whether the message was consumed by a session.
func (m *Manager) HandleMessage(channelID, authorID, text string) bool {
	return m.waiter.Deliver(Key{OwnerID: authorID, ChannelID: channelID}, Input{Text: text})
}

// HandleControl delivers a confirm-step button press.
func (m *Manager) HandleControl(ownerID, channelID, userID, control string) error {
	if userID != ownerID {
		return ErrNotOwner
	}
	if !m.waiter.Deliver(Key{OwnerID: ownerID, ChannelID: channelID}, Input{Control: control}) {
		return ErrNoSession
	}
	return nil
}

// Session returns the active session for the key, if any.
func (m *Manager) Session(ownerID, channelID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[Key{OwnerID: ownerID, ChannelID: channelID}]
	return s, ok
}

// Active returns the number of running sessions.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close abandons every session and waits for them to exit.
func (m *Manager) Close() {
	m.mu.Lock()
	for _, s := range m.sessions {
		s.cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Manager) finish(s *Session) {
	m.mu.Lock()
	if m.sessions[s.Key] == s {
		delete(m.sessions, s.Key)
	}
	m.mu.Unlock()
	s.cancel()
	close(s.done)
	m.wg.Done()
}

func (m *Manager) run(ctx context.Context, s *Session) {
	defer m.finish(s)

	step := StepName
	for {
		s.setStep(step)

		switch step {
		case StepName:
			text, ok := m.askText(ctx, s, step)
			if !ok {
				return
			}
			s.mu.Lock()
			s.fields.DisplayName = text
			s.mu.Unlock()
			step = StepEmbedText

		case StepEmbedText:
			text, ok := m.askText(ctx, s, step)
			if !ok {
				return
			}
			s.mu.Lock()
			s.fields.BodyText = text
			s.mu.Unlock()
			step = StepModRole

		case StepModRole:
			id, ok := m.askID(ctx, s, step)
			if !ok {
				return
			}
			// "0" 表示不设置管理角色
			if id == "0" {
				id = ""
			}
			s.mu.Lock()
			s.fields.ModeratorRoleID = id
			s.mu.Unlock()
			step = StepCategory

		case StepCategory:
			id, ok := m.askID(ctx, s, step)
			if !ok {
				return
			}
			s.mu.Lock()
			s.fields.TicketCategoryID = id
			s.mu.Unlock()
			step = StepConfirm

		case StepConfirm:
			control, ok := m.askConfirm(ctx, s)
			if !ok {
				return
			}
			switch control {
			case ControlConfirm:
				m.commit(s)
				return
			case ControlCancel:
				m.send(s.ChannelID, &discordgo.MessageSend{Content: fmt.Sprintf("<@%s> Setup for %s cancelled, nothing was changed.", s.OwnerID, s.PanelKey)})
				return
			case ControlRestart:
				s.mu.Lock()
				s.fields = model.PanelFields{}
				s.mu.Unlock()
				m.send(s.ChannelID, &discordgo.MessageSend{Content: "Setup is restarting..."})
				step = StepName
			}
		}
	}
}

type prompt struct {
	text    string
	command string
}

var prompts = map[Step]prompt{
	StepName:      {"Please enter the panel name:", "set-panel-name"},
	StepEmbedText: {"Please enter the embed text:", "set-embed-text"},
	StepModRole:   {"Please enter the moderator role ID (0 for none):", "set-ticket-mod"},
	StepCategory:  {"Please enter the ticket category ID:", "create-tickets-in"},
}

func (m *Manager) timeoutFor(step Step) time.Duration {
	switch step {
	case StepEmbedText:
		return m.policy.WizardBodyTimeout
	case StepConfirm:
		return m.policy.WizardConfirmTimeout
	default:
		return m.policy.WizardShortTimeout
	}
}

// await waits for the next input accepted by match. A false return means the
// session is over; the timeout notice has already been sent if that is why.
func (m *Manager) await(ctx context.Context, s *Session, step Step, match func(Input) bool) (Input, bool) {
	in, err := m.waiter.Wait(ctx, s.Key, m.timeoutFor(step), match)
	if err == nil {
		return in, true
	}
	if errors.Is(err, ErrTimeout) {
		log.Printf("[Wizard] %s setup by %s timed out at step %s", s.PanelKey, s.OwnerID, step)
		m.send(s.ChannelID, &discordgo.MessageSend{Content: fmt.Sprintf("<@%s> ⏰ Setup for %s timed out. Run the command again to start over.", s.OwnerID, s.PanelKey)})
	}
	return Input{}, false
}

func isText(in Input) bool {
	return in.Control == "" && strings.TrimSpace(in.Text) != ""
}

func (m *Manager) askText(ctx context.Context, s *Session, step Step) (string, bool) {
	p := prompts[step]
	m.send(s.ChannelID, &discordgo.MessageSend{Content: fmt.Sprintf("<@%s> %s\n`%s <value>`", s.OwnerID, p.text, p.command)})

	for {
		in, ok := m.await(ctx, s, step, isText)
		if !ok {
			return "", false
		}
		value := stripCommand(in.Text, p.command)
		if value != "" {
			return value, true
		}
		m.send(s.ChannelID, &discordgo.MessageSend{Content: fmt.Sprintf("❌ Value must not be empty.\n`%s <value>`", p.command)})
	}
}

// askID keeps re-prompting until the owner sends something that parses as an ID.
func (m *Manager) askID(ctx context.Context, s *Session, step Step) (string, bool) {
	p := prompts[step]
	m.send(s.ChannelID, &discordgo.MessageSend{Content: fmt.Sprintf("<@%s> %s\n`%s <id>`", s.OwnerID, p.text, p.command)})

	for {
		in, ok := m.await(ctx, s, step, isText)
		if !ok {
			return "", false
		}
		id, err := utils.ParseSnowflake(stripCommand(in.Text, p.command))
		if err == nil {
			return id, true
		}
		m.send(s.ChannelID, &discordgo.MessageSend{Content: fmt.Sprintf("❌ Error: %v. Please enter a numeric ID.\n`%s <id>`", err, p.command)})
	}
}

func (m *Manager) askConfirm(ctx context.Context, s *Session) (string, bool) {
	s.mu.Lock()
	fields := s.fields
	s.mu.Unlock()

	role := "none"
	if fields.ModeratorRoleID != "" {
		role = fmt.Sprintf("<@&%s>", fields.ModeratorRoleID)
	}
	embed := &discordgo.MessageEmbed{
		Title: "Panel setup complete",
		Description: fmt.Sprintf("**Name:** %s\n**Embed:** %s\n**Mod role:** %s\n**Category:** <#%s>",
			fields.DisplayName, fields.BodyText, role, fields.TicketCategoryID),
		Color: 0x3498DB,
	}
	m.send(s.ChannelID, &discordgo.MessageSend{
		Content: fmt.Sprintf("<@%s> Finish?", s.OwnerID),
		Embeds:  []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "Yes", Style: discordgo.SuccessButton, CustomID: utils.WizardControlID(ControlConfirm, s.OwnerID, s.ChannelID)},
					discordgo.Button{Label: "No", Style: discordgo.DangerButton, CustomID: utils.WizardControlID(ControlCancel, s.OwnerID, s.ChannelID)},
					discordgo.Button{Label: "Go Back", Style: discordgo.SecondaryButton, CustomID: utils.WizardControlID(ControlRestart, s.OwnerID, s.ChannelID)},
				},
			},
		},
	})

	in, ok := m.await(ctx, s, StepConfirm, func(in Input) bool { return in.Control != "" })
	if !ok {
		return "", false
	}
	return in.Control, true
}

// commit writes the collected fields and posts the ticket intake message.
func (m *Manager) commit(s *Session) {
	s.mu.Lock()
	fields := s.fields
	s.mu.Unlock()

	if err := m.registry.Commit(s.PanelKey, fields); err != nil {
		log.Printf("[Wizard] Failed to commit %s: %v", s.PanelKey, err)
		m.send(s.ChannelID, &discordgo.MessageSend{Content: fmt.Sprintf("❌ Failed to save panel: %v", err)})
		return
	}
	log.Printf("[Wizard] Panel %s committed by %s", s.PanelKey, s.OwnerID)

	m.send(s.ChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       fields.DisplayName,
			Description: fields.BodyText,
			Color:       0x2ECC71,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "📨 Open ticket", Style: discordgo.PrimaryButton, CustomID: utils.TicketOpenID(s.PanelKey)},
				},
			},
		},
	})
	m.send(s.ChannelID, &discordgo.MessageSend{Content: "✅ Panel created!"})
}

func (m *Manager) send(channelID string, msg *discordgo.MessageSend) {
	if _, err := m.adapter.SendMessage(channelID, msg); err != nil {
		log.Printf("[Wizard] Failed to send message to channel %s: %v", channelID, err)
	}
}

// stripCommand removes the optional "set-panel-name"-style prefix.
func stripCommand(text, command string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(strings.ToLower(text), command) {
		text = strings.TrimSpace(text[len(command):])
	}
	return text
}

// Package platformtest provides an in-memory platform.Adapter for tests.
package platformtest

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"ticket_guard/platform"
)

type Timeout struct {
	GuildID string
	UserID  string
	Until   time.Time
}

type Removal struct {
	GuildID    string
	UserID     string
	Reason     string
	DeleteDays int
}

type Sent struct {
	ChannelID string
	Msg       *discordgo.MessageSend
}

// Fake records every outbound call. Set Errors[op] to make op fail.
type Fake struct {
	mu sync.Mutex

	BotID  string
	Admins map[string]bool
	Audit  []platform.AuditEntry
	Errors map[string]error
	// AdminDelay makes IsAdministrator block like a REST round trip.
	AdminDelay time.Duration

	DeletedMessages []string
	Timeouts        []Timeout
	Kicks           []Removal
	Bans            []Removal
	Channels        map[string]*discordgo.Channel
	Created         []discordgo.GuildChannelCreateData
	DeletedChannels []string
	Messages        []Sent
	AuditQueries    int

	nextID int
}

var _ platform.Adapter = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		BotID:    "999",
		Admins:   make(map[string]bool),
		Errors:   make(map[string]error),
		Channels: make(map[string]*discordgo.Channel),
	}
}

// PermissionDenied builds the error discordgo returns for a 403.
func PermissionDenied() error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusForbidden, Status: "403 Forbidden"},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingPermissions, Message: "Missing Permissions"},
	}
}

func (f *Fake) err(op string) error {
	return f.Errors[op]
}

func (f *Fake) SetError(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[op] = err
}

func (f *Fake) BotUserID() string { return f.BotID }

func (f *Fake) IsAdministrator(guildID, userID string) (bool, error) {
	f.mu.Lock()
	delay := f.AdminDelay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("admin"); err != nil {
		return false, err
	}
	return f.Admins[userID], nil
}

func (f *Fake) DeleteMessage(channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("delete_message"); err != nil {
		return err
	}
	f.DeletedMessages = append(f.DeletedMessages, messageID)
	return nil
}

func (f *Fake) TimeoutMember(guildID, userID string, until time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("timeout"); err != nil {
		return err
	}
	f.Timeouts = append(f.Timeouts, Timeout{GuildID: guildID, UserID: userID, Until: until})
	return nil
}

func (f *Fake) KickMember(guildID, userID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("kick"); err != nil {
		return err
	}
	f.Kicks = append(f.Kicks, Removal{GuildID: guildID, UserID: userID, Reason: reason})
	return nil
}

func (f *Fake) BanMember(guildID, userID, reason string, deleteDays int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("ban"); err != nil {
		return err
	}
	f.Bans = append(f.Bans, Removal{GuildID: guildID, UserID: userID, Reason: reason, DeleteDays: deleteDays})
	return nil
}

func (f *Fake) Channel(channelID string) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.Channels[channelID]
	if !ok {
		return nil, fmt.Errorf("unknown channel %s", channelID)
	}
	return ch, nil
}

// AddChannel registers a channel that exists before the test starts.
func (f *Fake) AddChannel(ch *discordgo.Channel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Channels[ch.ID] = ch
}

func (f *Fake) CreateChannel(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("create_channel"); err != nil {
		return nil, err
	}
	f.nextID++
	ch := &discordgo.Channel{
		ID:                   fmt.Sprintf("c%d", f.nextID),
		GuildID:              guildID,
		Name:                 data.Name,
		Topic:                data.Topic,
		ParentID:             data.ParentID,
		PermissionOverwrites: data.PermissionOverwrites,
	}
	f.Channels[ch.ID] = ch
	f.Created = append(f.Created, data)
	return ch, nil
}

func (f *Fake) DeleteChannel(channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("delete_channel"); err != nil {
		return err
	}
	delete(f.Channels, channelID)
	f.DeletedChannels = append(f.DeletedChannels, channelID)
	return nil
}

func (f *Fake) SendMessage(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("send"); err != nil {
		return nil, err
	}
	f.nextID++
	f.Messages = append(f.Messages, Sent{ChannelID: channelID, Msg: msg})
	return &discordgo.Message{ID: fmt.Sprintf("m%d", f.nextID), ChannelID: channelID, Content: msg.Content}, nil
}

func (f *Fake) AuditLog(guildID string, kind discordgo.AuditLogAction, limit int) ([]platform.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AuditQueries++
	if err := f.err("audit"); err != nil {
		return nil, err
	}
	entries := f.Audit
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return append([]platform.AuditEntry(nil), entries...), nil
}

// SentTo returns a snapshot of the messages posted to channelID.
func (f *Fake) SentTo(channelID string) []*discordgo.MessageSend {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*discordgo.MessageSend
	for _, m := range f.Messages {
		if m.ChannelID == channelID {
			out = append(out, m.Msg)
		}
	}
	return out
}

// Calls is a copy of everything a Fake recorded.
type Calls struct {
	DeletedMessages []string
	Timeouts        []Timeout
	Kicks           []Removal
	Bans            []Removal
	Created         []discordgo.GuildChannelCreateData
	DeletedChannels []string
	Messages        []Sent
	AuditQueries    int
}

// Snapshot copies the recorded calls under the lock.
func (f *Fake) Snapshot() Calls {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Calls{
		DeletedMessages: append([]string(nil), f.DeletedMessages...),
		Timeouts:        append([]Timeout(nil), f.Timeouts...),
		Kicks:           append([]Removal(nil), f.Kicks...),
		Bans:            append([]Removal(nil), f.Bans...),
		Created:         append([]discordgo.GuildChannelCreateData(nil), f.Created...),
		DeletedChannels: append([]string(nil), f.DeletedChannels...),
		Messages:        append([]Sent(nil), f.Messages...),
		AuditQueries:    f.AuditQueries,
	}
}

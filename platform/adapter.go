package platform

import (
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Adapter 是核心逻辑对 Discord 的全部出站调用
type Adapter interface {
	BotUserID() string
	IsAdministrator(guildID, userID string) (bool, error)

	DeleteMessage(channelID, messageID string) error
	TimeoutMember(guildID, userID string, until time.Time) error
	KickMember(guildID, userID, reason string) error
	BanMember(guildID, userID, reason string, deleteDays int) error

	Channel(channelID string) (*discordgo.Channel, error)
	CreateChannel(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error)
	DeleteChannel(channelID string) error
	SendMessage(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error)

	AuditLog(guildID string, kind discordgo.AuditLogAction, limit int) ([]AuditEntry, error)
}

// AuditEntry is the subset of an audit log entry attribution needs.
type AuditEntry struct {
	ID        string
	ActorID   string
	TargetID  string
	CreatedAt time.Time
}

// IsPermissionError reports whether err is Discord refusing the call for lack of rights.
func IsPermissionError(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
			return true
		}
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusForbidden
}

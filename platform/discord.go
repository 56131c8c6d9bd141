package platform

import (
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Discord implements Adapter on top of a discordgo session.
type Discord struct {
	Session *discordgo.Session
}

func NewDiscord(s *discordgo.Session) *Discord {
	return &Discord{Session: s}
}

func (d *Discord) BotUserID() string {
	if d.Session.State == nil || d.Session.State.User == nil {
		return ""
	}
	return d.Session.State.User.ID
}

// IsAdministrator 判断成员是否为服主或拥有管理员权限
// 优先读取网关缓存，缓存缺失时才走 REST
func (d *Discord) IsAdministrator(guildID, userID string) (bool, error) {
	guild, err := d.guild(guildID)
	if err != nil {
		return false, err
	}
	if guild.OwnerID == userID {
		return true, nil
	}

	member, err := d.member(guildID, userID)
	if err != nil {
		return false, err
	}
	roles := guild.Roles
	if len(roles) == 0 {
		roles, err = d.Session.GuildRoles(guildID)
		if err != nil {
			return false, fmt.Errorf("failed to get roles for guild %s: %w", guildID, err)
		}
	}
	return memberPermissions(guildID, member, roles)&discordgo.PermissionAdministrator != 0, nil
}

func (d *Discord) guild(guildID string) (*discordgo.Guild, error) {
	if d.Session.State != nil {
		if guild, err := d.Session.State.Guild(guildID); err == nil {
			return guild, nil
		}
	}
	guild, err := d.Session.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild %s: %w", guildID, err)
	}
	return guild, nil
}

func (d *Discord) member(guildID, userID string) (*discordgo.Member, error) {
	if d.Session.State != nil {
		if member, err := d.Session.State.Member(guildID, userID); err == nil {
			return member, nil
		}
	}
	member, err := d.Session.GuildMember(guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get member %s: %w", userID, err)
	}
	return member, nil
}

func memberPermissions(guildID string, member *discordgo.Member, roles []*discordgo.Role) int64 {
	var perms int64
	for _, role := range roles {
		// @everyone 的角色 ID 与服务器 ID 相同
		if role.ID == guildID {
			perms |= role.Permissions
			continue
		}
		for _, memberRole := range member.Roles {
			if memberRole == role.ID {
				perms |= role.Permissions
				break
			}
		}
	}
	return perms
}

func (d *Discord) DeleteMessage(channelID, messageID string) error {
	return d.Session.ChannelMessageDelete(channelID, messageID)
}

func (d *Discord) TimeoutMember(guildID, userID string, until time.Time) error {
	return d.Session.GuildMemberTimeout(guildID, userID, &until)
}

func (d *Discord) KickMember(guildID, userID, reason string) error {
	return d.Session.GuildMemberDeleteWithReason(guildID, userID, reason)
}

func (d *Discord) BanMember(guildID, userID, reason string, deleteDays int) error {
	return d.Session.GuildBanCreateWithReason(guildID, userID, reason, deleteDays)
}

func (d *Discord) Channel(channelID string) (*discordgo.Channel, error) {
	return d.Session.Channel(channelID)
}

func (d *Discord) CreateChannel(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	return d.Session.GuildChannelCreateComplex(guildID, data)
}

func (d *Discord) DeleteChannel(channelID string) error {
	_, err := d.Session.ChannelDelete(channelID)
	return err
}

func (d *Discord) SendMessage(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	return d.Session.ChannelMessageSendComplex(channelID, msg)
}

func (d *Discord) AuditLog(guildID string, kind discordgo.AuditLogAction, limit int) ([]AuditEntry, error) {
	auditLog, err := d.Session.GuildAuditLog(guildID, "", "", int(kind), limit)
	if err != nil {
		return nil, err
	}

	entries := make([]AuditEntry, 0, len(auditLog.AuditLogEntries))
	for _, e := range auditLog.AuditLogEntries {
		createdAt, err := discordgo.SnowflakeTimestamp(e.ID)
		if err != nil {
			log.Printf("[Platform] Skipping audit entry with bad id %s: %v", e.ID, err)
			continue
		}
		entries = append(entries, AuditEntry{
			ID:        e.ID,
			ActorID:   e.UserID,
			TargetID:  e.TargetID,
			CreatedAt: createdAt,
		})
	}
	return entries, nil
}

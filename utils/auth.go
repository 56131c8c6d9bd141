package utils

import "github.com/bwmarrin/discordgo"

// IsAdministrator 判断发起交互的成员是否拥有管理员权限。
// Member.Permissions 由 Discord 在交互中计算好，包含服主与频道覆写
func IsAdministrator(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	return i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

// InteractionUserID returns the ID of the user behind an interaction in a guild or DM.
func InteractionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

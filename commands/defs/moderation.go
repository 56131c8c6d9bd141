package defs

import "github.com/bwmarrin/discordgo"

func listCommand(name, description string) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     name,
		Description:              description,
		DefaultMemberPermissions: &adminOnly,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "action",
				Description: "要执行的操作",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "添加 (add)", Value: "add"},
					{Name: "移除 (remove)", Value: "remove"},
					{Name: "查看 (list)", Value: "list"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "目标用户 (add/remove 时必填)",
				Required:    false,
			},
		},
	}
}

var ModWhitelist = listCommand("mod-whitelist", "Manage users exempt from automatic moderation")

var ModBlacklist = listCommand("mod-blacklist", "Manage users flagged in the moderation log")

var ModHistory = &discordgo.ApplicationCommand{
	Name:                     "mod-history",
	Description:              "Show automatic moderation actions taken against a user",
	DefaultMemberPermissions: &adminOnly,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "要查询的用户",
			Required:    true,
		},
	},
}

var GuardStatus = &discordgo.ApplicationCommand{
	Name:                     "guard-status",
	Description:              "Display bot and system status information",
	DefaultMemberPermissions: &adminOnly,
	NameLocalizations: &map[discordgo.Locale]string{
		discordgo.ChineseCN: "系统信息",
		discordgo.ChineseTW: "系統信息",
	},
}

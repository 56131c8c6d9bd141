package defs

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

var adminOnly = int64(discordgo.PermissionAdministrator)

// EditPanelCommandName returns the command that starts the setup wizard of the n-th panel.
func EditPanelCommandName(n int) string {
	return fmt.Sprintf("edit-panel-%d", n)
}

// EditPanel builds the edit-panel command for the n-th panel.
func EditPanel(n int) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     EditPanelCommandName(n),
		Description:              fmt.Sprintf("Set up ticket panel %d step by step in this channel", n),
		DefaultMemberPermissions: &adminOnly,
		NameLocalizations: &map[discordgo.Locale]string{
			discordgo.ChineseCN: fmt.Sprintf("编辑面板%d", n),
			discordgo.ChineseTW: fmt.Sprintf("編輯面板%d", n),
		},
	}
}

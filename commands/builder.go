package commands

import (
	"github.com/bwmarrin/discordgo"

	"ticket_guard/commands/defs"
	"ticket_guard/model"
)

// GenerateCommands returns the slash commands registered in every guild.
func GenerateCommands() []*discordgo.ApplicationCommand {
	cmds := make([]*discordgo.ApplicationCommand, 0, len(model.PanelKeys)+4)
	for n := range model.PanelKeys {
		cmds = append(cmds, defs.EditPanel(n+1))
	}
	return append(cmds,
		defs.ModWhitelist,
		defs.ModBlacklist,
		defs.ModHistory,
		defs.GuardStatus,
	)
}

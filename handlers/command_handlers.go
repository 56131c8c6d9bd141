package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"ticket_guard/bot"
	"ticket_guard/commands/defs"
	"ticket_guard/model"
	"ticket_guard/moderation"
	"ticket_guard/utils"
)

const historyLimit = 10

// adminOnly 包装命令处理器，非管理员收到仅自己可见的提示
func adminOnly(h func(s *discordgo.Session, i *discordgo.InteractionCreate)) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if !utils.IsAdministrator(i) {
			utils.SendErrorResponse(s, i, "Insufficient privilege: this command requires the Administrator permission.")
			return
		}
		h(s, i)
	}
}

func commandHandlers(b *bot.Bot) map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	handlers := map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate){
		defs.ModWhitelist.Name: adminOnly(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			handleListCommand(s, i, b, moderation.Whitelist)
		}),
		defs.ModBlacklist.Name: adminOnly(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			handleListCommand(s, i, b, moderation.Blacklist)
		}),
		defs.ModHistory.Name: adminOnly(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			handleHistoryCommand(s, i, b)
		}),
		defs.GuardStatus.Name: adminOnly(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			SystemInfoHandler(s, i, b)
		}),
	}
	for n, key := range model.PanelKeys {
		key := key
		handlers[defs.EditPanelCommandName(n+1)] = adminOnly(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			handleEditPanel(s, i, b, key)
		})
	}
	return handlers
}

func handleEditPanel(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, panelKey string) {
	svc := b.Guilds.Ensure(i.GuildID)
	ownerID := utils.InteractionUserID(i)

	// 向导会话比交互存活更久，不能使用交互的上下文
	if _, err := svc.Wizard.Start(context.Background(), panelKey, ownerID, i.ChannelID); err != nil {
		log.Printf("[Wizard] Failed to start %s setup: %v", panelKey, err)
		utils.SendErrorResponse(s, i, fmt.Sprintf("Could not start setup: %v", err))
		return
	}
	utils.SendEphemeralResponse(s, i, fmt.Sprintf("Setting up **%s**. Answer the questions in this channel.", panelKey))
}

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	for _, opt := range i.ApplicationCommandData().Options {
		opts[opt.Name] = opt
	}
	return opts
}

func handleListCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, kind moderation.ListKind) {
	svc := b.Guilds.Ensure(i.GuildID)
	opts := optionMap(i)
	action := ""
	if opt, ok := opts["action"]; ok {
		action = opt.StringValue()
	}

	if action == "list" {
		members := svc.Lists.Members(kind)
		if len(members) == 0 {
			utils.SendEphemeralResponse(s, i, fmt.Sprintf("The %s is empty.", kind))
			return
		}
		lines := make([]string, 0, len(members))
		for _, id := range members {
			lines = append(lines, fmt.Sprintf("<@%s> (`%s`)", id, id))
		}
		utils.SendEmbedResponse(s, i, &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("%s (%d)", kind, len(members)),
			Description: strings.Join(lines, "\n"),
			Color:       0x5865F2,
		})
		return
	}

	userOpt, ok := opts["user"]
	if !ok {
		utils.SendErrorResponse(s, i, "Please choose a user.")
		return
	}
	user := userOpt.UserValue(nil)

	var changed bool
	switch action {
	case "add":
		changed = svc.Lists.Add(kind, user.ID)
	case "remove":
		changed = svc.Lists.Remove(kind, user.ID)
	default:
		utils.SendErrorResponse(s, i, fmt.Sprintf("Unknown action %q.", action))
		return
	}

	if !changed {
		utils.SendEphemeralResponse(s, i, fmt.Sprintf("Nothing changed: <@%s> was already handled.", user.ID))
		return
	}
	log.Printf("[Moderation] %s %s %s in guild %s", utils.InteractionUserID(i), action, user.ID, i.GuildID)
	utils.LogInfo(b.Adapter, b.GetConfig().LogChannelID, "Moderation", fmt.Sprintf("%s %s", kind, action),
		fmt.Sprintf("<@%s> by <@%s>", user.ID, utils.InteractionUserID(i)))
	utils.SendEphemeralResponse(s, i, fmt.Sprintf("✅ %s: <@%s> (%s)", action, user.ID, kind))
}

func handleHistoryCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	svc := b.Guilds.Ensure(i.GuildID)
	userOpt, ok := optionMap(i)["user"]
	if !ok {
		utils.SendErrorResponse(s, i, "Please choose a user.")
		return
	}
	user := userOpt.UserValue(nil)

	records, err := svc.History(user.ID, historyLimit)
	if err != nil {
		log.Printf("[Moderation] Failed to load history for %s: %v", user.ID, err)
		utils.SendErrorResponse(s, i, "Could not load the action history.")
		return
	}
	utils.SendEmbedResponse(s, i, historyEmbed(user.ID, records))
}

func historyEmbed(userID string, records []model.ActionRecord) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "Moderation history",
		Color: 0xE67E22,
	}
	if len(records) == 0 {
		embed.Description = fmt.Sprintf("No automatic actions recorded for <@%s>.", userID)
		return embed
	}

	embed.Description = fmt.Sprintf("Latest %d actions for <@%s>", len(records), userID)
	for _, r := range records {
		status := "✅"
		if !r.Succeeded {
			status = "⚠️ failed"
		}
		value := fmt.Sprintf("<t:%d:R> %s (%d violations) %s", r.Timestamp, r.Reason, r.ViolationCount, status)
		if r.DurationSecs > 0 {
			value += fmt.Sprintf("\nDuration: %s", time.Duration(r.DurationSecs)*time.Second)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  r.ActionType,
			Value: value,
		})
	}
	return embed
}

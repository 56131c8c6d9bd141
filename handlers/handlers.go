package handlers

import (
	"context"
	"log"

	"github.com/bwmarrin/discordgo"

	"ticket_guard/bot"
	"ticket_guard/utils"
)

func Register(b *bot.Bot) {
	b.CommandHandlers = commandHandlers(b)
	addHandlers(b)
}

func addHandlers(b *bot.Bot) {
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Logged in as: %v#%v", s.State.User.Username, s.State.User.Discriminator)
	})

	b.Session.AddHandler(func(s *discordgo.Session, g *discordgo.GuildCreate) {
		if g.Unavailable {
			return
		}
		b.Guilds.Ensure(g.ID)
		b.RefreshCommands(g.ID)
	})

	b.Session.AddHandler(func(s *discordgo.Session, g *discordgo.GuildDelete) {
		// Unavailable 表示服务器暂时宕机，机器人并未离开
		if g.Unavailable {
			return
		}
		b.Guilds.Remove(g.ID)
		b.ForgetCommands(g.ID)
		utils.LogInfo(b.Adapter, b.GetConfig().LogChannelID, "Guild", "Left guild", g.ID)
	})

	b.Session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.GuildID == "" {
			return
		}
		b.Guilds.Ensure(m.GuildID).HandleMessage(m.Message)
	})

	b.Session.AddHandler(func(s *discordgo.Session, w *discordgo.WebhooksUpdate) {
		svc, ok := b.Guilds.Get(w.GuildID)
		if !ok {
			return
		}
		svc.HandleWebhooksUpdate(context.Background(), w.ChannelID)
	})

	b.Session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		handleInteractionCreate(s, i, b)
	})
}

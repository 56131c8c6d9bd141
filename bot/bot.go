package bot

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"

	"ticket_guard/commands"
	"ticket_guard/guild"
	"ticket_guard/model"
	"ticket_guard/platform"
	"ticket_guard/utils"
	"ticket_guard/utils/database/actions"
)

// 同一用户两次开工单之间的最短间隔
const ticketOpenCooldown = 10 * time.Second

type Bot struct {
	Session  *discordgo.Session
	Adapter  *platform.Discord
	Guilds   *guild.Registry
	ActionDB *sqlx.DB
	// guildID -> 该服务器当前注册的命令，关闭时据此删除
	RegisteredCommands map[string][]*discordgo.ApplicationCommand
	OpenCooldown       *utils.Cooldown
	CommandHandlers    map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)

	config    atomic.Value // *model.Config
	commandMu sync.Mutex
	scheduler *Scheduler
}

func (b *Bot) GetConfig() *model.Config {
	return b.config.Load().(*model.Config)
}

func New(cfg *model.Config, db *sqlx.DB) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent |
		discordgo.IntentsGuildWebhooks |
		discordgo.IntentsGuildMembers
	// 每个事件在独立的 goroutine 中处理，审计日志等待不会阻塞其他事件
	dg.SyncEvents = false

	adapter := platform.NewDiscord(dg)
	opts := guild.Options{
		Adapter:      adapter,
		Policy:       cfg.Policy,
		LogChannelID: cfg.LogChannelID,
		Whitelist:    cfg.WhitelistUserIDs,
	}
	if db != nil {
		opts.Actions = actions.Log{DB: db}
	}

	b := &Bot{
		Session:            dg,
		Adapter:            adapter,
		Guilds:             guild.NewRegistry(opts),
		ActionDB:           db,
		RegisteredCommands: make(map[string][]*discordgo.ApplicationCommand),
		OpenCooldown:       utils.NewCooldown(ticketOpenCooldown),
	}
	b.config.Store(cfg)
	b.scheduler = NewScheduler(b.Guilds, db, b.OpenCooldown)
	return b, nil
}

func (b *Bot) Close() {
	log.Println("Gracefully shutting down.")
	b.scheduler.Stop()
	b.removeCommands()
	b.Guilds.Close()
	if err := b.Session.Close(); err != nil {
		log.Printf("Error closing session: %v", err)
	}
	if b.ActionDB != nil {
		b.ActionDB.Close()
	}
}

// RefreshCommands overwrites the guild's slash commands with the current set.
func (b *Bot) RefreshCommands(guildID string) {
	cmds := commands.GenerateCommands()
	log.Printf("Registering %d commands for guild %s...", len(cmds), guildID)
	registered, err := b.Session.ApplicationCommandBulkOverwrite(b.Session.State.User.ID, guildID, cmds)
	if err != nil {
		log.Printf("cannot update commands for guild '%s': %v", guildID, err)
		return
	}

	b.rememberCommands(guildID, registered)
}

// 重连后 GuildCreate 会再次触发，覆盖而不是追加
func (b *Bot) rememberCommands(guildID string, registered []*discordgo.ApplicationCommand) {
	b.commandMu.Lock()
	b.RegisteredCommands[guildID] = registered
	b.commandMu.Unlock()
}

// ForgetCommands drops the bookkeeping for a guild the bot has left.
func (b *Bot) ForgetCommands(guildID string) {
	b.commandMu.Lock()
	delete(b.RegisteredCommands, guildID)
	b.commandMu.Unlock()
}

func (b *Bot) removeCommands() {
	b.commandMu.Lock()
	defer b.commandMu.Unlock()

	if b.Session.State == nil || b.Session.State.User == nil {
		return
	}
	appID := b.Session.State.User.ID
	for guildID, cmds := range b.RegisteredCommands {
		for _, cmd := range cmds {
			if err := b.Session.ApplicationCommandDelete(appID, guildID, cmd.ID); err != nil {
				log.Printf("Cannot delete '%v' command in guild %s: %v", cmd.Name, guildID, err)
			}
		}
		delete(b.RegisteredCommands, guildID)
	}
}

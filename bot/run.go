package bot

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ticket_guard/utils"
)

// Run opens the gateway and blocks until the process is interrupted. Guild
// services and commands are set up as GuildCreate events arrive.
func (b *Bot) Run() {
	if err := b.Session.Open(); err != nil {
		log.Fatalf("Error opening connection: %v", err)
	}

	b.scheduler.Start()

	fmt.Println("Bot is now running. Press CTRL-C to exit.")
	utils.LogInfo(b.Adapter, b.GetConfig().LogChannelID, "System", "Startup", "Bot has started successfully.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc
}

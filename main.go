package main

import (
	"log"
	"os"
	"path/filepath"

	"ticket_guard/bot"
	"ticket_guard/config"
	"ticket_guard/handlers"
	"ticket_guard/utils/database/actions"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.ActionDBPath), os.ModePerm); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	db, err := actions.Init(cfg.ActionDBPath)
	if err != nil {
		log.Fatalf("Error initializing action database: %v", err)
	}

	b, err := bot.New(cfg, db)
	if err != nil {
		log.Fatalf("Error creating bot: %v", err)
	}

	handlers.Register(b)

	b.Run()

	b.Close()
}

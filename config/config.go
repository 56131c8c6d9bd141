package config

import (
	"errors"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"ticket_guard/model"
)

// ErrMissingToken is returned when BOT_TOKEN is not configured.
var ErrMissingToken = errors.New("BOT_TOKEN environment variable not set")

// Load 从 .env 与环境变量读取启动配置，随后加载审核策略
func Load() (*model.Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: .env file not found, relying on environment variables")
	}

	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		return nil, ErrMissingToken
	}

	logChannelID := os.Getenv("LOG_CHANNEL_ID")
	if logChannelID == "" {
		log.Println("Warning: LOG_CHANNEL_ID not set, channel logging will be disabled")
	}

	cfg := &model.Config{
		BotToken:         token,
		LogChannelID:     logChannelID,
		ActionDBPath:     getenvDefault("ACTION_DB_PATH", "data/actions.db"),
		PolicyFile:       getenvDefault("POLICY_FILE", "data/policy.yaml"),
		WhitelistUserIDs: splitIDs(os.Getenv("WHITELIST_USER_IDS")),
	}

	policy, err := LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	cfg.Policy = policy

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// splitIDs 解析逗号分隔的 ID 列表，忽略空项
func splitIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPolicyDefaults(t *testing.T) {
	p, err := LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	def := DefaultPolicy()
	assert.Empty(t, p.BlockedWords)
	p.BlockedWords, def.BlockedWords = nil, nil
	assert.Equal(t, def, p)
	assert.Equal(t, 20*time.Second, p.Window())
}

func TestLoadPolicyFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
threshold: 8
timeout_duration: 10m
blocked_words:
  - spam
  - scam
invite_filter: false
`), 0o644))
	t.Setenv("GUARD_WINDOW_SECONDS", "30")

	p, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, 8, p.Threshold)
	assert.Equal(t, 10*time.Minute, p.TimeoutDuration)
	assert.Equal(t, []string{"spam", "scam"}, p.BlockedWords)
	assert.False(t, p.InviteFilter)
	assert.Equal(t, 30, p.WindowSeconds)
	assert.Equal(t, 50, p.WindowCap)
}

func TestLoadPolicyRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("threshold: 0\n"), 0o644))

	_, err := LoadPolicy(path)
	assert.ErrorContains(t, err, "threshold")
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestLoad(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("LOG_CHANNEL_ID", "42")
	t.Setenv("ACTION_DB_PATH", "")
	t.Setenv("POLICY_FILE", "")
	t.Setenv("WHITELIST_USER_IDS", " 1, 2,,3 ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "token", cfg.BotToken)
	assert.Equal(t, "42", cfg.LogChannelID)
	assert.Equal(t, "data/actions.db", cfg.ActionDBPath)
	assert.Equal(t, "data/policy.yaml", cfg.PolicyFile)
	assert.Equal(t, []string{"1", "2", "3"}, cfg.WhitelistUserIDs)
	assert.Equal(t, 5, cfg.Policy.Threshold)
}

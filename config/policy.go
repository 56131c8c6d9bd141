package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"

	"ticket_guard/model"
)

// DefaultPolicy is used for every value the policy file and environment leave unset.
func DefaultPolicy() model.Policy {
	return model.Policy{
		WindowSeconds:            20,
		WindowCap:                50,
		Threshold:                5,
		BanAfterTimeouts:         0,
		BanDeleteDays:            1,
		TimeoutDuration:          time.Hour,
		AuditDelay:               time.Second,
		AuditScanLimit:           10,
		AuditWithin:              15 * time.Second,
		WebhookStrikesBeforeKick: 3,
		WizardShortTimeout:       120 * time.Second,
		WizardBodyTimeout:        300 * time.Second,
		WizardConfirmTimeout:     120 * time.Second,
		CloseConfirmTTL:          30 * time.Second,
		CloseGrace:               2 * time.Second,
		MassMentionLimit:         5,
		InviteFilter:             true,
		BlockedWords:             []string{},
	}
}

// LoadPolicy reads the policy from an optional YAML file at path, then applies
// GUARD_* environment overrides (e.g. GUARD_THRESHOLD=8).
func LoadPolicy(path string) (model.Policy, error) {
	v := viper.New()
	def := DefaultPolicy()
	v.SetDefault("window_seconds", def.WindowSeconds)
	v.SetDefault("window_cap", def.WindowCap)
	v.SetDefault("threshold", def.Threshold)
	v.SetDefault("ban_after_timeouts", def.BanAfterTimeouts)
	v.SetDefault("ban_delete_days", def.BanDeleteDays)
	v.SetDefault("timeout_duration", def.TimeoutDuration)
	v.SetDefault("audit_delay", def.AuditDelay)
	v.SetDefault("audit_scan_limit", def.AuditScanLimit)
	v.SetDefault("audit_within", def.AuditWithin)
	v.SetDefault("webhook_strikes_before_kick", def.WebhookStrikesBeforeKick)
	v.SetDefault("wizard_short_timeout", def.WizardShortTimeout)
	v.SetDefault("wizard_body_timeout", def.WizardBodyTimeout)
	v.SetDefault("wizard_confirm_timeout", def.WizardConfirmTimeout)
	v.SetDefault("close_confirm_ttl", def.CloseConfirmTTL)
	v.SetDefault("close_grace", def.CloseGrace)
	v.SetDefault("mass_mention_limit", def.MassMentionLimit)
	v.SetDefault("invite_filter", def.InviteFilter)
	v.SetDefault("blocked_words", def.BlockedWords)

	v.SetEnvPrefix("GUARD")
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return model.Policy{}, fmt.Errorf("failed to read policy file %s: %w", path, err)
			}
			log.Printf("[Config] Loaded policy from %s", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return model.Policy{}, fmt.Errorf("failed to stat policy file %s: %w", path, err)
		}
	}

	var p model.Policy
	if err := v.Unmarshal(&p); err != nil {
		return model.Policy{}, fmt.Errorf("failed to decode policy: %w", err)
	}
	if err := validatePolicy(p); err != nil {
		return model.Policy{}, err
	}
	return p, nil
}

func validatePolicy(p model.Policy) error {
	switch {
	case p.WindowSeconds <= 0:
		return fmt.Errorf("invalid policy: window_seconds must be positive, got %d", p.WindowSeconds)
	case p.Threshold <= 0:
		return fmt.Errorf("invalid policy: threshold must be positive, got %d", p.Threshold)
	case p.WindowCap < p.Threshold:
		return fmt.Errorf("invalid policy: window_cap (%d) is below threshold (%d)", p.WindowCap, p.Threshold)
	case p.TimeoutDuration <= 0:
		return fmt.Errorf("invalid policy: timeout_duration must be positive")
	case p.TimeoutDuration > 28*24*time.Hour:
		// Discord 最多允许禁言 28 天
		return fmt.Errorf("invalid policy: timeout_duration %s exceeds 28 days", p.TimeoutDuration)
	case p.AuditScanLimit <= 0 || p.AuditScanLimit > 100:
		return fmt.Errorf("invalid policy: audit_scan_limit must be within 1..100, got %d", p.AuditScanLimit)
	case p.WebhookStrikesBeforeKick <= 0:
		return fmt.Errorf("invalid policy: webhook_strikes_before_kick must be positive")
	case p.BanDeleteDays < 0 || p.BanDeleteDays > 7:
		return fmt.Errorf("invalid policy: ban_delete_days must be within 0..7, got %d", p.BanDeleteDays)
	}
	return nil
}

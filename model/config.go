package model

import "time"

// Policy 存储审核与工单流程用到的全部常量，启动时由 config.LoadPolicy 填充
type Policy struct {
	WindowSeconds    int `mapstructure:"window_seconds"`
	WindowCap        int `mapstructure:"window_cap"`
	Threshold        int `mapstructure:"threshold"`
	BanAfterTimeouts int `mapstructure:"ban_after_timeouts"`
	BanDeleteDays    int `mapstructure:"ban_delete_days"`

	TimeoutDuration time.Duration `mapstructure:"timeout_duration"`

	AuditDelay     time.Duration `mapstructure:"audit_delay"`
	AuditScanLimit int           `mapstructure:"audit_scan_limit"`
	AuditWithin    time.Duration `mapstructure:"audit_within"`

	WebhookStrikesBeforeKick int `mapstructure:"webhook_strikes_before_kick"`

	WizardShortTimeout   time.Duration `mapstructure:"wizard_short_timeout"`
	WizardBodyTimeout    time.Duration `mapstructure:"wizard_body_timeout"`
	WizardConfirmTimeout time.Duration `mapstructure:"wizard_confirm_timeout"`

	CloseConfirmTTL time.Duration `mapstructure:"close_confirm_ttl"`
	CloseGrace      time.Duration `mapstructure:"close_grace"`

	MassMentionLimit int      `mapstructure:"mass_mention_limit"`
	InviteFilter     bool     `mapstructure:"invite_filter"`
	BlockedWords     []string `mapstructure:"blocked_words"`
}

// Window 返回违规统计窗口长度
func (p Policy) Window() time.Duration {
	return time.Duration(p.WindowSeconds) * time.Second
}

// Config 存储应用程序的配置
type Config struct {
	BotToken         string
	LogChannelID     string
	ActionDBPath     string
	PolicyFile       string
	WhitelistUserIDs []string
	Policy           Policy
}

package model

// ActionRecord is a single executed escalation action.
// The database table is named 'moderation_actions'.
type ActionRecord struct {
	ActionID       int64  `db:"action_id"` // Primary Key, Auto-increment
	GuildID        string `db:"guild_id"`
	UserID         string `db:"user_id"`
	ActionType     string `db:"action_type"` // "timeout", "kick", "ban"
	Reason         string `db:"reason"`
	ViolationCount int    `db:"violation_count"`
	DurationSecs   int64  `db:"duration_secs"`
	Succeeded      bool   `db:"succeeded"`
	Timestamp      int64  `db:"timestamp"`
}

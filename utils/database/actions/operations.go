package actions

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"ticket_guard/model"
)

// AddActionRecord stores an executed escalation action and returns its ID.
func AddActionRecord(db *sqlx.DB, record model.ActionRecord) (int64, error) {
	query := `INSERT INTO moderation_actions (guild_id, user_id, action_type, reason, violation_count, duration_secs, succeeded, timestamp)
			  VALUES (:guild_id, :user_id, :action_type, :reason, :violation_count, :duration_secs, :succeeded, :timestamp)`

	result, err := db.NamedExec(query, record)
	if err != nil {
		return 0, fmt.Errorf("failed to insert action record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return id, nil
}

// GetActionRecordsByUserID returns the newest actions taken against a user, at most limit rows.
func GetActionRecordsByUserID(db *sqlx.DB, guildID, userID string, limit int) ([]model.ActionRecord, error) {
	var records []model.ActionRecord
	query := "SELECT * FROM moderation_actions WHERE guild_id = ? AND user_id = ? ORDER BY timestamp DESC, action_id DESC LIMIT ?"
	if err := db.Select(&records, query, guildID, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to get action records for user %s: %w", userID, err)
	}
	return records, nil
}

// GetActionCountsSince counts the actions per type in a guild since the given time.
func GetActionCountsSince(db *sqlx.DB, guildID string, since time.Time) (map[string]int, error) {
	query := `SELECT action_type, COUNT(*) AS count FROM moderation_actions WHERE guild_id = ? AND timestamp >= ? GROUP BY action_type`
	rows, err := db.Queryx(query, guildID, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to get action counts for guild %s: %w", guildID, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var actionType string
		var count int
		if err := rows.Scan(&actionType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan action count row: %w", err)
		}
		counts[actionType] = count
	}
	return counts, rows.Err()
}

// DeleteActionRecordsBefore removes actions older than cutoff and returns how many were removed.
func DeleteActionRecordsBefore(db *sqlx.DB, cutoff time.Time) (int64, error) {
	result, err := db.Exec("DELETE FROM moderation_actions WHERE timestamp < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old action records: %w", err)
	}
	return result.RowsAffected()
}

// Log adapts a database handle to the recorder used by the moderation flow.
type Log struct {
	DB *sqlx.DB
}

func (l Log) Record(record model.ActionRecord) error {
	_, err := AddActionRecord(l.DB, record)
	return err
}

func (l Log) History(guildID, userID string, limit int) ([]model.ActionRecord, error) {
	return GetActionRecordsByUserID(l.DB, guildID, userID, limit)
}

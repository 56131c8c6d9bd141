package actions

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Init opens the action log and makes sure the moderation_actions table exists.
func Init(dbPath string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS moderation_actions (
	          action_id INTEGER PRIMARY KEY AUTOINCREMENT,
	          guild_id TEXT NOT NULL,
	          user_id TEXT NOT NULL,
	          action_type TEXT NOT NULL,
	          reason TEXT NOT NULL DEFAULT '',
	          violation_count INTEGER NOT NULL DEFAULT 0,
	          duration_secs INTEGER NOT NULL DEFAULT 0,
	          succeeded BOOLEAN NOT NULL DEFAULT 1,
	          timestamp INTEGER NOT NULL
	      );`
	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create moderation_actions table: %w", err)
	}

	if _, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_moderation_actions_user ON moderation_actions (guild_id, user_id, timestamp)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create moderation_actions index: %w", err)
	}

	// :memory: 数据库每个连接都是独立的
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	return db, nil
}

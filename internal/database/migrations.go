package database

import (
	"database/sql"
	"fmt"
)

// columnExists checks if a column exists on a given table (SQLite PRAGMA table_info)
func columnExists(db *sql.DB, table string, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	var cid int
	var name string
	var ctype string
	var notnull int
	var dflt sql.NullString
	var pk int

	for rows.Next() {
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// ensureUniqueTokens collapses duplicate (user_id, token) rows left by older
// schemas and installs the unique index the token upsert relies on.
func ensureUniqueTokens(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM fcm_tokens
		WHERE id NOT IN (SELECT MIN(id) FROM fcm_tokens GROUP BY user_id, token)`); err != nil {
		return fmt.Errorf("dedupe fcm tokens: %w", err)
	}
	if _, err := tx.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_fcm_tokens_user_token ON fcm_tokens(user_id, token)"); err != nil {
		return fmt.Errorf("unique fcm token index: %w", err)
	}
	return tx.Commit()
}

// Migrate adds columns introduced after the first schema (idempotent).
func Migrate(db *sql.DB) error {
	additions := []struct {
		table, column, ddl string
	}{
		{"users", "last_seen_at", "ALTER TABLE users ADD COLUMN last_seen_at DATETIME"},
		{"word_reminders", "last_fired_at", "ALTER TABLE word_reminders ADD COLUMN last_fired_at DATETIME"},
		{"word_reminders", "auto_word_reminder_id", "ALTER TABLE word_reminders ADD COLUMN auto_word_reminder_id INTEGER REFERENCES auto_word_reminders(id) ON DELETE SET NULL"},
		{"auto_word_reminders", "next_run_at", "ALTER TABLE auto_word_reminders ADD COLUMN next_run_at DATETIME"},
		{"user_words_word_reminders", "position", "ALTER TABLE user_words_word_reminders ADD COLUMN position INTEGER NOT NULL DEFAULT 0"},
	}
	for _, a := range additions {
		exists, err := columnExists(db, a.table, a.column)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := db.Exec(a.ddl); err != nil {
			return fmt.Errorf("add %s.%s: %w", a.table, a.column, err)
		}
	}
	return nil
}

package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Initialize opens (creating if needed) the sqlite database at dbPath and
// ensures the schema exists. When encryptionKey is set the key is applied
// with PRAGMA key, which requires a SQLCipher-linked build.
func Initialize(dbPath, encryptionKey string) (*sql.DB, error) {
	memory := dbPath == ":memory:" || strings.HasPrefix(dbPath, "file::memory:")
	if !memory {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", dsn(dbPath, memory))
	if err != nil {
		return nil, err
	}

	// PRAGMA key and in-memory databases are per connection, so the pool is
	// pinned to a single one in those cases.
	if memory || encryptionKey != "" {
		db.SetMaxOpenConns(1)
	}

	if encryptionKey != "" {
		esc := strings.ReplaceAll(encryptionKey, "'", "''")
		if _, err := db.Exec(fmt.Sprintf("PRAGMA key = '%s';", esc)); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set database encryption key: %w", err)
		}
		_, _ = db.Exec("PRAGMA cipher_compatibility = 4;")
		var count int
		if err := db.QueryRow("SELECT count(*) FROM sqlite_master;").Scan(&count); err != nil {
			db.Close()
			return nil, fmt.Errorf("database inaccessible with provided encryption key: %w", err)
		}
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func dsn(dbPath string, memory bool) string {
	if memory {
		return dbPath
	}
	return dbPath + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		last_seen_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS words (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		word TEXT UNIQUE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_words (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		word_id INTEGER NOT NULL,
		learned BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, word_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (word_id) REFERENCES words(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS auto_word_reminders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL UNIQUE,
		reminder TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		word_count INTEGER NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		has_reminder_onload BOOLEAN NOT NULL DEFAULT 0,
		has_learned_words BOOLEAN NOT NULL DEFAULT 0,
		sort_mode TEXT NOT NULL DEFAULT 'newest',
		next_run_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS word_reminders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		auto_word_reminder_id INTEGER,
		reminder TEXT NOT NULL,
		finish DATETIME NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		has_reminder_onload BOOLEAN NOT NULL DEFAULT 0,
		starts_at DATETIME NOT NULL,
		last_fired_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (auto_word_reminder_id) REFERENCES auto_word_reminders(id) ON DELETE SET NULL
	);

	CREATE TABLE IF NOT EXISTS user_words_word_reminders (
		word_reminder_id INTEGER NOT NULL,
		user_word_id INTEGER NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (word_reminder_id, user_word_id),
		FOREIGN KEY (word_reminder_id) REFERENCES word_reminders(id) ON DELETE CASCADE,
		FOREIGN KEY (user_word_id) REFERENCES user_words(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS fcm_tokens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS push_subscriptions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		endpoint TEXT NOT NULL,
		p256dh TEXT NOT NULL,
		auth TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, endpoint),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	-- Server-side refresh token store for rotating refresh tokens
	CREATE TABLE IF NOT EXISTS refresh_tokens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token_hash TEXT NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		ttl_days INTEGER NOT NULL DEFAULT 7,
		revoked BOOLEAN DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_user_words_user_id ON user_words(user_id);
	CREATE INDEX IF NOT EXISTS idx_word_reminders_user_id ON word_reminders(user_id);
	CREATE INDEX IF NOT EXISTS idx_uwwr_user_word_id ON user_words_word_reminders(user_word_id);
	CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON refresh_tokens(user_id);
	`

	if _, err := db.Exec(schema); err != nil {
		return err
	}
	return ensureUniqueTokens(db)
}

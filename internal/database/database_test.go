package database

import (
	"path/filepath"
	"testing"
)

func TestInitializeCreatesSchema(t *testing.T) {
	db, err := Initialize(filepath.Join(t.TempDir(), "test.db"), "")
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"users", "words", "user_words", "word_reminders", "user_words_word_reminders", "auto_word_reminders", "fcm_tokens", "push_subscriptions", "refresh_tokens"} {
		var name string
		if err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&name); err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate on fresh schema: %v", err)
	}
}

func TestInitializeReopensExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Initialize(path, "")
	if err != nil {
		t.Fatalf("first Initialize: %v", err)
	}
	db.Close()

	db, err = Initialize(path, "")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	db.Close()
}

func TestFCMTokensAreUniquePerUser(t *testing.T) {
	db, err := Initialize(":memory:", "")
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec("INSERT INTO users (email, password_hash) VALUES ('a@example.com', 'x')"); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if _, err := db.Exec("INSERT INTO fcm_tokens (user_id, token) VALUES (1, 'T1')"); err != nil {
		t.Fatalf("insert token: %v", err)
	}
	if _, err := db.Exec("INSERT INTO fcm_tokens (user_id, token) VALUES (1, 'T1')"); err == nil {
		t.Fatal("expected duplicate (user_id, token) to be rejected")
	}
}

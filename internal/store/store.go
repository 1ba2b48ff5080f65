// Package store holds the parameterized SQL for every persisted entity.
package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
	// ErrNoWords is returned when a reminder would be created without any
	// words the user owns.
	ErrNoWords = errors.New("word reminder requires at least one word")
)

// Store groups the per-entity repositories sharing one *sql.DB.
type Store struct {
	DB            *sql.DB
	Users         *Users
	RefreshTokens *RefreshTokens
	Tokens        *TokenRegistry
	Subscriptions *Subscriptions
	UserWords     *UserWords
	WordReminders *WordReminders
	AutoReminders *AutoReminders
}

func New(db *sql.DB) *Store {
	return &Store{
		DB:            db,
		Users:         &Users{db: db},
		RefreshTokens: &RefreshTokens{db: db},
		Tokens:        &TokenRegistry{db: db},
		Subscriptions: &Subscriptions{db: db},
		UserWords:     &UserWords{db: db},
		WordReminders: &WordReminders{db: db},
		AutoReminders: &AutoReminders{db: db},
	}
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func intArgs(ids []int) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

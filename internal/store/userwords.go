package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"wordreminder/internal/models"
)

type UserWords struct {
	db *sql.DB
}

const userWordColumns = `uw.id, uw.user_id, uw.word_id, w.word, uw.learned, uw.created_at, uw.updated_at`

func scanUserWord(scan func(dest ...any) error) (models.UserWord, error) {
	var uw models.UserWord
	err := scan(&uw.ID, &uw.UserID, &uw.WordID, &uw.Word, &uw.Learned, &uw.CreatedAt, &uw.UpdatedAt)
	return uw, err
}

// Create attaches word to the user, creating the dictionary row on first use.
// Adding a word the user already has yields ErrConflict.
func (s *UserWords) Create(ctx context.Context, userID int, word string) (models.UserWord, error) {
	word = strings.ToLower(strings.TrimSpace(word))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.UserWord{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "INSERT INTO words (word) VALUES (?) ON CONFLICT(word) DO NOTHING", word); err != nil {
		return models.UserWord{}, fmt.Errorf("insert word: %w", err)
	}
	var wordID int
	if err := tx.QueryRowContext(ctx, "SELECT id FROM words WHERE word = ?", word).Scan(&wordID); err != nil {
		return models.UserWord{}, fmt.Errorf("load word: %w", err)
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO user_words (user_id, word_id, learned, created_at, updated_at) VALUES (?, ?, 0, ?, ?)",
		userID, wordID, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.UserWord{}, ErrConflict
		}
		return models.UserWord{}, fmt.Errorf("insert user word: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.UserWord{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.UserWord{}, err
	}
	return s.Get(ctx, userID, int(id))
}

func (s *UserWords) Get(ctx context.Context, userID, id int) (models.UserWord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userWordColumns+`
		FROM user_words uw JOIN words w ON w.id = uw.word_id
		WHERE uw.user_id = ? AND uw.id = ?`,
		userID, id,
	)
	uw, err := scanUserWord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserWord{}, ErrNotFound
	}
	return uw, err
}

// List returns every word of the user, newest first.
func (s *UserWords) List(ctx context.Context, userID int) ([]models.UserWord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userWordColumns+`
		FROM user_words uw JOIN words w ON w.id = uw.word_id
		WHERE uw.user_id = ?
		ORDER BY uw.created_at DESC, uw.id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	words := []models.UserWord{}
	for rows.Next() {
		uw, err := scanUserWord(rows.Scan)
		if err != nil {
			return nil, err
		}
		words = append(words, uw)
	}
	return words, rows.Err()
}

// ByIDs returns the user's words among ids, preserving the order of ids.
// Ids the user does not own are dropped.
func (s *UserWords) ByIDs(ctx context.Context, userID int, ids []int) ([]models.UserWord, error) {
	if len(ids) == 0 {
		return []models.UserWord{}, nil
	}
	args := append([]any{userID}, intArgs(ids)...)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userWordColumns+`
		FROM user_words uw JOIN words w ON w.id = uw.word_id
		WHERE uw.user_id = ? AND uw.id IN (`+placeholders(len(ids))+`)`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int]models.UserWord, len(ids))
	for rows.Next() {
		uw, err := scanUserWord(rows.Scan)
		if err != nil {
			return nil, err
		}
		byID[uw.ID] = uw
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]models.UserWord, 0, len(byID))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if uw, ok := byID[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, uw)
		}
	}
	return out, nil
}

func (s *UserWords) SetLearned(ctx context.Context, userID, id int, learned bool) (models.UserWord, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE user_words SET learned = ?, updated_at = ? WHERE user_id = ? AND id = ?",
		learned, time.Now().UTC(), userID, id,
	)
	if err != nil {
		return models.UserWord{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.UserWord{}, ErrNotFound
	}
	return s.Get(ctx, userID, id)
}

func (s *UserWords) Delete(ctx context.Context, userID, id int) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM user_words WHERE user_id = ? AND id = ?", userID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

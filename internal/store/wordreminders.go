package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wordreminder/internal/models"
)

type WordReminders struct {
	db *sql.DB
}

const reminderColumns = `id, user_id, auto_word_reminder_id, reminder, finish, is_active,
	has_reminder_onload, starts_at, last_fired_at, created_at, updated_at`

func scanReminder(scan func(dest ...any) error) (models.WordReminder, error) {
	var wr models.WordReminder
	var autoID sql.NullInt64
	var lastFired sql.NullTime
	err := scan(&wr.ID, &wr.UserID, &autoID, &wr.Reminder, &wr.Finish, &wr.IsActive,
		&wr.HasReminderOnload, &wr.StartsAt, &lastFired, &wr.CreatedAt, &wr.UpdatedAt)
	if err != nil {
		return wr, err
	}
	if autoID.Valid {
		id := int(autoID.Int64)
		wr.AutoWordReminderID = &id
	}
	wr.LastFiredAt = nullTimePtr(lastFired)
	wr.Finish = wr.Finish.UTC()
	wr.StartsAt = wr.StartsAt.UTC()
	wr.UserWords = []models.UserWord{}
	return wr, nil
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// ownedWordIDs filters ids down to the user's words, keeping order and
// dropping duplicates.
func ownedWordIDs(ctx context.Context, q execQuerier, userID int, ids []int) ([]int, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := append([]any{userID}, intArgs(ids)...)
	rows, err := q.QueryContext(ctx,
		"SELECT id FROM user_words WHERE user_id = ? AND id IN ("+placeholders(len(ids))+")",
		args...,
	)
	if err != nil {
		return nil, err
	}
	owned := map[int]bool{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		owned[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]int, 0, len(owned))
	for _, id := range ids {
		if owned[id] {
			out = append(out, id)
			delete(owned, id)
		}
	}
	return out, nil
}

func replaceWords(ctx context.Context, q execQuerier, reminderID int, wordIDs []int) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM user_words_word_reminders WHERE word_reminder_id = ?", reminderID); err != nil {
		return err
	}
	for pos, id := range wordIDs {
		if _, err := q.ExecContext(ctx,
			"INSERT INTO user_words_word_reminders (word_reminder_id, user_word_id, position) VALUES (?, ?, ?)",
			reminderID, id, pos,
		); err != nil {
			return fmt.Errorf("attach word %d: %w", id, err)
		}
	}
	return nil
}

// Create persists wr with the given words. Word ids the user does not own are
// ignored; if none remain the reminder is rejected with ErrNoWords.
func (s *WordReminders) Create(ctx context.Context, wr models.WordReminder, userWordIDs []int) (models.WordReminder, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.WordReminder{}, err
	}
	defer tx.Rollback()

	wordIDs, err := ownedWordIDs(ctx, tx, wr.UserID, userWordIDs)
	if err != nil {
		return models.WordReminder{}, err
	}
	if len(wordIDs) == 0 {
		return models.WordReminder{}, ErrNoWords
	}

	now := time.Now().UTC()
	var autoID any
	if wr.AutoWordReminderID != nil {
		autoID = *wr.AutoWordReminderID
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO word_reminders
		(user_id, auto_word_reminder_id, reminder, finish, is_active, has_reminder_onload, starts_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		wr.UserID, autoID, wr.Reminder, wr.Finish.UTC(), wr.IsActive, wr.HasReminderOnload, wr.StartsAt.UTC(), now, now,
	)
	if err != nil {
		return models.WordReminder{}, fmt.Errorf("insert word reminder: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.WordReminder{}, err
	}
	if err := replaceWords(ctx, tx, int(id), wordIDs); err != nil {
		return models.WordReminder{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.WordReminder{}, err
	}
	return s.Get(ctx, wr.UserID, int(id))
}

func (s *WordReminders) Get(ctx context.Context, userID, id int) (models.WordReminder, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+reminderColumns+" FROM word_reminders WHERE user_id = ? AND id = ?",
		userID, id,
	)
	wr, err := scanReminder(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WordReminder{}, ErrNotFound
	}
	if err != nil {
		return models.WordReminder{}, err
	}
	list := []models.WordReminder{wr}
	if err := s.attachWords(ctx, list); err != nil {
		return models.WordReminder{}, err
	}
	return list[0], nil
}

// List returns the user's reminders, newest first, with their words.
func (s *WordReminders) List(ctx context.Context, userID int) ([]models.WordReminder, error) {
	return s.query(ctx,
		"SELECT "+reminderColumns+" FROM word_reminders WHERE user_id = ? ORDER BY id DESC",
		userID,
	)
}

// ListActive returns every reminder flagged active across all users. Expiry
// is left to the caller since it depends on the evaluation time.
func (s *WordReminders) ListActive(ctx context.Context) ([]models.WordReminder, error) {
	return s.query(ctx,
		"SELECT "+reminderColumns+" FROM word_reminders WHERE is_active = 1 ORDER BY user_id, id",
	)
}

func (s *WordReminders) query(ctx context.Context, q string, args ...any) ([]models.WordReminder, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	reminders := []models.WordReminder{}
	for rows.Next() {
		wr, err := scanReminder(rows.Scan)
		if err != nil {
			rows.Close()
			return nil, err
		}
		reminders = append(reminders, wr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachWords(ctx, reminders); err != nil {
		return nil, err
	}
	return reminders, nil
}

// attachWords loads the words of each reminder in one query.
func (s *WordReminders) attachWords(ctx context.Context, reminders []models.WordReminder) error {
	if len(reminders) == 0 {
		return nil
	}
	ids := make([]int, len(reminders))
	index := make(map[int]int, len(reminders))
	for i, wr := range reminders {
		ids[i] = wr.ID
		index[wr.ID] = i
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT x.word_reminder_id, `+userWordColumns+`
		FROM user_words_word_reminders x
		JOIN user_words uw ON uw.id = x.user_word_id
		JOIN words w ON w.id = uw.word_id
		WHERE x.word_reminder_id IN (`+placeholders(len(ids))+`)
		ORDER BY x.word_reminder_id, x.position`,
		intArgs(ids)...,
	)
	if err != nil {
		return fmt.Errorf("load reminder words: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var reminderID int
		var uw models.UserWord
		if err := rows.Scan(&reminderID, &uw.ID, &uw.UserID, &uw.WordID, &uw.Word, &uw.Learned, &uw.CreatedAt, &uw.UpdatedAt); err != nil {
			return err
		}
		i := index[reminderID]
		reminders[i].UserWords = append(reminders[i].UserWords, uw)
	}
	return rows.Err()
}

// Update replaces the mutable fields of wr. A nil userWordIDs keeps the
// current word set; a non-nil one must leave at least one owned word.
func (s *WordReminders) Update(ctx context.Context, wr models.WordReminder, userWordIDs []int) (models.WordReminder, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.WordReminder{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE word_reminders SET reminder = ?, finish = ?, is_active = ?, has_reminder_onload = ?,
		starts_at = ?, updated_at = ?
		WHERE user_id = ? AND id = ?`,
		wr.Reminder, wr.Finish.UTC(), wr.IsActive, wr.HasReminderOnload, wr.StartsAt.UTC(), time.Now().UTC(),
		wr.UserID, wr.ID,
	)
	if err != nil {
		return models.WordReminder{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.WordReminder{}, ErrNotFound
	}

	if userWordIDs != nil {
		wordIDs, err := ownedWordIDs(ctx, tx, wr.UserID, userWordIDs)
		if err != nil {
			return models.WordReminder{}, err
		}
		if len(wordIDs) == 0 {
			return models.WordReminder{}, ErrNoWords
		}
		if err := replaceWords(ctx, tx, wr.ID, wordIDs); err != nil {
			return models.WordReminder{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.WordReminder{}, err
	}
	return s.Get(ctx, wr.UserID, wr.ID)
}

func (s *WordReminders) Delete(ctx context.Context, userID, id int) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM word_reminders WHERE user_id = ? AND id = ?", userID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *WordReminders) DeleteAll(ctx context.Context, userID int) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM word_reminders WHERE user_id = ?", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarkFired records, per reminder id, the cadence boundary that fired. It is
// written whether or not delivery later succeeds.
func (s *WordReminders) MarkFired(ctx context.Context, fired map[int]time.Time) error {
	if len(fired) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for id, at := range fired {
		if _, err := tx.ExecContext(ctx,
			"UPDATE word_reminders SET last_fired_at = ? WHERE id = ?",
			at.UTC(), id,
		); err != nil {
			return fmt.Errorf("mark word reminder %d fired: %w", id, err)
		}
	}
	return tx.Commit()
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wordreminder/internal/models"
)

// AutoReminders stores the per-user generator configuration. A user has at
// most one.
type AutoReminders struct {
	db *sql.DB
}

const autoColumns = `id, user_id, reminder, duration_ms, word_count, is_active, has_reminder_onload,
	has_learned_words, sort_mode, next_run_at, created_at, updated_at`

func scanAuto(scan func(dest ...any) error) (models.AutoWordReminder, error) {
	var a models.AutoWordReminder
	var sortMode string
	var nextRun sql.NullTime
	err := scan(&a.ID, &a.UserID, &a.Reminder, &a.DurationMs, &a.WordCount, &a.IsActive,
		&a.HasReminderOnload, &a.HasLearnedWords, &sortMode, &nextRun, &a.CreatedAt, &a.UpdatedAt)
	a.SortMode = models.SortMode(sortMode)
	a.NextRunAt = nullTimePtr(nextRun)
	return a, err
}

func (s *AutoReminders) Create(ctx context.Context, a models.AutoWordReminder) (models.AutoWordReminder, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO auto_word_reminders
		(user_id, reminder, duration_ms, word_count, is_active, has_reminder_onload, has_learned_words, sort_mode, next_run_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.Reminder, a.DurationMs, a.WordCount, a.IsActive, a.HasReminderOnload,
		a.HasLearnedWords, string(a.SortMode), timeOrNil(a.NextRunAt), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.AutoWordReminder{}, ErrConflict
		}
		return models.AutoWordReminder{}, fmt.Errorf("insert auto word reminder: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.AutoWordReminder{}, err
	}
	return s.Get(ctx, a.UserID, int(id))
}

func (s *AutoReminders) Get(ctx context.Context, userID, id int) (models.AutoWordReminder, error) {
	a, err := scanAuto(s.db.QueryRowContext(ctx,
		"SELECT "+autoColumns+" FROM auto_word_reminders WHERE user_id = ? AND id = ?",
		userID, id,
	).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AutoWordReminder{}, ErrNotFound
	}
	return a, err
}

func (s *AutoReminders) GetByUser(ctx context.Context, userID int) (models.AutoWordReminder, error) {
	a, err := scanAuto(s.db.QueryRowContext(ctx,
		"SELECT "+autoColumns+" FROM auto_word_reminders WHERE user_id = ?",
		userID,
	).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AutoWordReminder{}, ErrNotFound
	}
	return a, err
}

// ListActive returns all active generators; the caller decides which are due.
func (s *AutoReminders) ListActive(ctx context.Context) ([]models.AutoWordReminder, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+autoColumns+" FROM auto_word_reminders WHERE is_active = 1 ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.AutoWordReminder{}
	for rows.Next() {
		a, err := scanAuto(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *AutoReminders) Update(ctx context.Context, a models.AutoWordReminder) (models.AutoWordReminder, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE auto_word_reminders SET reminder = ?, duration_ms = ?, word_count = ?, is_active = ?,
		has_reminder_onload = ?, has_learned_words = ?, sort_mode = ?, next_run_at = ?, updated_at = ?
		WHERE user_id = ? AND id = ?`,
		a.Reminder, a.DurationMs, a.WordCount, a.IsActive, a.HasReminderOnload, a.HasLearnedWords,
		string(a.SortMode), timeOrNil(a.NextRunAt), time.Now().UTC(), a.UserID, a.ID,
	)
	if err != nil {
		return models.AutoWordReminder{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.AutoWordReminder{}, ErrNotFound
	}
	return s.Get(ctx, a.UserID, a.ID)
}

func (s *AutoReminders) SetNextRun(ctx context.Context, id int, at time.Time) error {
	_, err := s.db.ExecContext(ctx, "UPDATE auto_word_reminders SET next_run_at = ? WHERE id = ?", at.UTC(), id)
	return err
}

func (s *AutoReminders) Delete(ctx context.Context, userID, id int) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM auto_word_reminders WHERE user_id = ? AND id = ?", userID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

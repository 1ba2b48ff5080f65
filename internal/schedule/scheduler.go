package schedule

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"wordreminder/internal/dedupe"
	"wordreminder/internal/logger"
	"wordreminder/internal/models"
	"wordreminder/internal/push"
	"wordreminder/internal/selection"
	"wordreminder/internal/store"
)

// Title heads every reminder notification.
const Title = "Your active word reminder has these words:"

const claimTTL = time.Hour

// Enqueuer hands an event to the delivery side without waiting for it.
type Enqueuer interface {
	Enqueue(ctx context.Context, ev push.Event) error
}

type Scheduler struct {
	store  *store.Store
	queue  Enqueuer
	claims dedupe.Claimer
	policy selection.Policy
}

func New(st *store.Store, q Enqueuer, claims dedupe.Claimer) *Scheduler {
	if claims == nil {
		claims = dedupe.NewMemory()
	}
	return &Scheduler{store: st, queue: q, claims: claims}
}

// Run ticks until ctx is cancelled. The first tick happens immediately.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	s.tick(ctx, time.Now().UTC())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.tick(ctx, now.UTC())
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	if _, err := s.GenerateDue(ctx, now); err != nil {
		logger.Error("auto word reminder generation failed", "error", err)
	}
	if _, err := s.FireDue(ctx, now); err != nil {
		logger.Error("word reminder firing failed", "error", err)
	}
}

// FireDue fires every due reminder, one coalesced event per user, and
// returns the number of events handed to the queue. A firing records the
// boundary it fired for, before its event is queued, and is never rolled
// back.
func (s *Scheduler) FireDue(ctx context.Context, now time.Time) (int, error) {
	reminders, err := s.store.WordReminders.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active reminders: %w", err)
	}

	var users []int
	due := map[int][]models.WordReminder{}
	boundaries := map[int]time.Time{}
	for _, wr := range reminders {
		boundary, ok, err := Due(wr, now)
		if err != nil {
			logger.Warn("skipping reminder with bad cadence", "word_reminder_id", wr.ID, "reminder", wr.Reminder, "error", err)
			continue
		}
		if !ok {
			continue
		}
		claimed, err := s.claims.Claim(ctx, fmt.Sprintf("%d:%d", wr.ID, boundary.Unix()), claimTTL)
		if err != nil {
			logger.Error("failed to claim firing", "word_reminder_id", wr.ID, "error", err)
			continue
		}
		if !claimed {
			continue
		}
		if _, seen := due[wr.UserID]; !seen {
			users = append(users, wr.UserID)
		}
		due[wr.UserID] = append(due[wr.UserID], wr)
		boundaries[wr.ID] = boundary
	}

	var errs []error
	sent := 0
	for _, userID := range users {
		group := due[userID]
		ids := make([]int, len(group))
		fired := make(map[int]time.Time, len(group))
		for i, wr := range group {
			ids[i] = wr.ID
			fired[wr.ID] = boundaries[wr.ID]
		}
		if err := s.store.WordReminders.MarkFired(ctx, fired); err != nil {
			errs = append(errs, fmt.Errorf("record firing for user %d: %w", userID, err))
			continue
		}
		ev := BuildEvent(userID, group)
		if err := s.queue.Enqueue(ctx, ev); err != nil {
			logger.Error("failed to queue reminder push", "user_id", userID, "error", err)
			continue
		}
		logger.Info("word reminders fired", "user_id", userID, "word_reminder_ids", ids)
		sent++
	}
	return sent, errors.Join(errs...)
}

// BuildEvent merges the words of reminders into one notification body.
// Repeated words are listed once.
func BuildEvent(userID int, reminders []models.WordReminder) push.Event {
	ids := make([]string, 0, len(reminders))
	for _, wr := range reminders {
		ids = append(ids, strconv.Itoa(wr.ID))
	}
	ev := push.Event{
		UserID: userID,
		Title:  Title,
		Body:   mergeWords(reminders),
	}
	if len(ids) > 0 {
		ev.Data = map[string]string{
			"wordReminderId":  ids[0],
			"wordReminderIds": strings.Join(ids, ","),
		}
	}
	return ev
}

func mergeWords(reminders []models.WordReminder) string {
	seen := map[string]bool{}
	var words []string
	for _, wr := range reminders {
		for _, uw := range wr.UserWords {
			if seen[uw.Word] {
				continue
			}
			seen[uw.Word] = true
			words = append(words, uw.Word)
		}
	}
	return strings.Join(words, ", ")
}

// Generate builds and stores a word reminder from an auto config. It returns
// store.ErrNoWords when the user has no eligible words.
func (s *Scheduler) Generate(ctx context.Context, cfg models.AutoWordReminder, now time.Time) (models.WordReminder, error) {
	if _, err := ParseCadence(cfg.Reminder); err != nil {
		return models.WordReminder{}, err
	}
	if cfg.DurationMs <= 0 {
		return models.WordReminder{}, errors.New("auto word reminder duration must be positive")
	}

	words, err := s.store.UserWords.List(ctx, cfg.UserID)
	if err != nil {
		return models.WordReminder{}, fmt.Errorf("list user words: %w", err)
	}
	picked := s.policy.Select(words, selection.Options{
		Count:          cfg.WordCount,
		IncludeLearned: cfg.HasLearnedWords,
		Order:          cfg.SortMode,
	})
	if len(picked) == 0 {
		return models.WordReminder{}, store.ErrNoWords
	}
	ids := make([]int, len(picked))
	for i, uw := range picked {
		ids[i] = uw.ID
	}

	wr := models.WordReminder{
		UserID:            cfg.UserID,
		Reminder:          cfg.Reminder,
		Finish:            now.Add(time.Duration(cfg.DurationMs) * time.Millisecond).UTC(),
		IsActive:          cfg.IsActive,
		HasReminderOnload: cfg.HasReminderOnload,
		StartsAt:          now.UTC().Truncate(time.Second),
	}
	if cfg.ID != 0 {
		id := cfg.ID
		wr.AutoWordReminderID = &id
	}
	return s.store.WordReminders.Create(ctx, wr, ids)
}

// GenerateDue regenerates the reminder of every active auto config whose
// next run has come, then moves next_run_at one duration past now. A user
// without eligible words is skipped until the following run.
func (s *Scheduler) GenerateDue(ctx context.Context, now time.Time) (int, error) {
	configs, err := s.store.AutoReminders.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list auto word reminders: %w", err)
	}

	var errs []error
	generated := 0
	for _, cfg := range configs {
		if cfg.NextRunAt == nil || cfg.NextRunAt.After(now) {
			continue
		}
		claimed, err := s.claims.Claim(ctx, fmt.Sprintf("auto:%d:%d", cfg.ID, cfg.NextRunAt.Unix()), claimTTL)
		if err != nil {
			logger.Error("failed to claim auto generation", "auto_word_reminder_id", cfg.ID, "error", err)
			continue
		}
		if !claimed {
			continue
		}

		wr, err := s.Generate(ctx, cfg, now)
		switch {
		case errors.Is(err, store.ErrNoWords):
			logger.Info("no eligible words for auto word reminder", "user_id", cfg.UserID, "auto_word_reminder_id", cfg.ID)
		case err != nil:
			errs = append(errs, fmt.Errorf("generate for auto word reminder %d: %w", cfg.ID, err))
		default:
			generated++
			logger.Info("auto word reminder generated", "user_id", cfg.UserID, "word_reminder_id", wr.ID, "words", len(wr.UserWords))
		}

		next := now.Add(time.Duration(cfg.DurationMs) * time.Millisecond)
		if err := s.store.AutoReminders.SetNextRun(ctx, cfg.ID, next); err != nil {
			errs = append(errs, fmt.Errorf("advance auto word reminder %d: %w", cfg.ID, err))
		}
	}
	return generated, errors.Join(errs...)
}

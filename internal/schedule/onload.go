package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"wordreminder/internal/models"
)

// OnloadNotification is shown in-app when a session starts.
type OnloadNotification struct {
	Title           string `json:"title"`
	Body            string `json:"body"`
	WordReminderIDs []int  `json:"wordReminderIds"`
}

// OnLoad starts a client session for userID. It returns one consolidated
// notification when at least one active reminder flagged has_reminder_onload
// fired since the user was last seen, nil otherwise, and records now as the
// new last seen time.
func (s *Scheduler) OnLoad(ctx context.Context, userID int, now time.Time) (*OnloadNotification, error) {
	user, err := s.store.Users.ByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	reminders, err := s.store.WordReminders.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}

	var hits []models.WordReminder
	for _, wr := range reminders {
		if !wr.HasReminderOnload || StateOf(wr, now) != Active || wr.LastFiredAt == nil {
			continue
		}
		if user.LastSeenAt != nil && !wr.LastFiredAt.After(*user.LastSeenAt) {
			continue
		}
		hits = append(hits, wr)
	}

	if err := s.store.Users.TouchLastSeen(ctx, userID, now); err != nil {
		return nil, fmt.Errorf("record last seen: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })

	ids := make([]int, len(hits))
	for i, wr := range hits {
		ids[i] = wr.ID
	}
	return &OnloadNotification{
		Title:           Title,
		Body:            mergeWords(hits),
		WordReminderIDs: ids,
	}, nil
}

package schedule

import (
	"time"

	"wordreminder/internal/models"
)

type State string

const (
	Pending  State = "pending"
	Active   State = "active"
	Inactive State = "inactive"
	Expired  State = "expired"
)

// StateOf derives the lifecycle state at now. Expiry wins over the active
// flag: a reminder past finish is expired even while is_active is still set.
func StateOf(wr models.WordReminder, now time.Time) State {
	switch {
	case now.After(wr.Finish):
		return Expired
	case !wr.IsActive:
		return Inactive
	case now.Before(wr.StartsAt):
		return Pending
	default:
		return Active
	}
}

// WithState fills the State field of each reminder.
func WithState(reminders []models.WordReminder, now time.Time) []models.WordReminder {
	for i := range reminders {
		reminders[i].State = string(StateOf(reminders[i], now))
	}
	return reminders
}

// Due reports the latest cadence boundary in (last firing, now] that is not
// past finish. Any number of missed boundaries yield a single firing.
func Due(wr models.WordReminder, now time.Time) (time.Time, bool, error) {
	if StateOf(wr, now) != Active {
		return time.Time{}, false, nil
	}
	sched, err := ParseCadence(wr.Reminder)
	if err != nil {
		return time.Time{}, false, err
	}
	limit := now
	if wr.Finish.Before(limit) {
		limit = wr.Finish
	}
	next := NextFiring(sched, wr)
	if next.IsZero() || next.After(limit) {
		return time.Time{}, false, nil
	}
	return latestBoundary(sched, next, limit), true, nil
}

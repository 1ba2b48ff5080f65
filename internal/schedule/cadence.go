// Package schedule decides when word reminders fire and generates the
// reminders of auto reminder configs.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"wordreminder/internal/models"
)

var ErrInvalidCadence = errors.New("invalid reminder cadence")

// MinInterval is the finest cadence accepted; the worker ticks once a minute.
const MinInterval = time.Minute

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseCadence accepts five field cron expressions, descriptors such as
// "@daily", and "@every <duration>" of at least MinInterval.
func ParseCadence(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidCadence)
	}
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCadence, err)
	}
	switch s := sched.(type) {
	case cron.ConstantDelaySchedule:
		if s.Delay < MinInterval {
			return nil, fmt.Errorf("%w: interval %s is shorter than %s", ErrInvalidCadence, s.Delay, MinInterval)
		}
	case *cron.SpecSchedule:
		// Expressions without a CRON_TZ= prefix are evaluated in UTC.
		if !strings.HasPrefix(expr, "CRON_TZ=") && !strings.HasPrefix(expr, "TZ=") {
			s.Location = time.UTC
		}
	}
	return sched, nil
}

// StartsAt returns when a new reminder becomes active. Without createNow it
// stays pending until the first cadence boundary, which is also its first
// firing.
func StartsAt(expr string, createNow bool, now time.Time) (time.Time, error) {
	sched, err := ParseCadence(expr)
	if err != nil {
		return time.Time{}, err
	}
	if createNow {
		return now.UTC().Truncate(time.Second), nil
	}
	return sched.Next(now).UTC(), nil
}

// maxCatchUp bounds the walk over missed boundaries of a cron expression.
const maxCatchUp = 100000

// NextFiring is the first boundary the reminder has not fired for: StartsAt
// until it fires, then the first boundary after the last firing.
func NextFiring(sched cron.Schedule, wr models.WordReminder) time.Time {
	if wr.LastFiredAt == nil || wr.LastFiredAt.Before(wr.StartsAt) {
		return wr.StartsAt
	}
	return sched.Next(*wr.LastFiredAt)
}

// latestBoundary returns the last boundary at or before limit, starting from
// the boundary b that is already known to be at or before it.
func latestBoundary(sched cron.Schedule, b, limit time.Time) time.Time {
	if every, ok := sched.(cron.ConstantDelaySchedule); ok {
		return b.Add(limit.Sub(b) / every.Delay * every.Delay)
	}
	for i := 0; i < maxCatchUp; i++ {
		next := sched.Next(b)
		if next.IsZero() || next.After(limit) {
			break
		}
		b = next
	}
	return b
}

// Package duration converts between unit breakdowns (minutes through weeks)
// and millisecond counts. Both reminder cadences and auto reminder windows
// are expressed this way on the wire.
package duration

import "time"

const (
	MinuteMs int64 = 60 * 1000
	HourMs         = 60 * MinuteMs
	DayMs          = 24 * HourMs
	WeekMs         = 7 * DayMs
)

// Units is a duration broken down into whole units. Months are not
// representable here.
type Units struct {
	Minutes int64 `json:"minutes"`
	Hours   int64 `json:"hours"`
	Days    int64 `json:"days"`
	Weeks   int64 `json:"weeks"`
}

// ToUnits decomposes ms largest unit first. Anything below a minute is
// dropped, and negative input yields zero units.
func ToUnits(ms int64) Units {
	if ms < 0 {
		return Units{}
	}

	weeks := ms / WeekMs
	ms %= WeekMs

	days := ms / DayMs
	ms %= DayMs

	hours := ms / HourMs
	ms %= HourMs

	return Units{
		Minutes: ms / MinuteMs,
		Hours:   hours,
		Days:    days,
		Weeks:   weeks,
	}
}

// ToMillis sums the units. Each negative field contributes zero on its own;
// the remaining fields still count.
func ToMillis(u Units) int64 {
	var total int64
	if u.Minutes >= 0 {
		total += u.Minutes * MinuteMs
	}
	if u.Hours >= 0 {
		total += u.Hours * HourMs
	}
	if u.Days >= 0 {
		total += u.Days * DayMs
	}
	if u.Weeks >= 0 {
		total += u.Weeks * WeekMs
	}
	return total
}

// Duration is ToMillis as a time.Duration.
func (u Units) Duration() time.Duration {
	return time.Duration(ToMillis(u)) * time.Millisecond
}

func (u Units) IsZero() bool {
	return ToMillis(u) == 0
}

// FromDuration is ToUnits for a time.Duration.
func FromDuration(d time.Duration) Units {
	return ToUnits(d.Milliseconds())
}

package duration

import (
	"math/rand/v2"
	"testing"
	"time"
)

func TestToUnits(t *testing.T) {
	cases := []struct {
		name string
		ms   int64
		want Units
	}{
		{name: "zero", ms: 0, want: Units{}},
		{name: "one minute", ms: MinuteMs, want: Units{Minutes: 1}},
		{name: "sub minute dropped", ms: MinuteMs - 1, want: Units{}},
		{name: "mixed", ms: 2*WeekMs + 3*DayMs + 4*HourMs + 5*MinuteMs + 999, want: Units{Minutes: 5, Hours: 4, Days: 3, Weeks: 2}},
		{name: "hours carry into days", ms: 25 * HourMs, want: Units{Hours: 1, Days: 1}},
		{name: "negative", ms: -1, want: Units{}},
		{name: "large negative", ms: -5 * WeekMs, want: Units{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ToUnits(tc.ms); got != tc.want {
				t.Fatalf("ToUnits(%d) = %+v, want %+v", tc.ms, got, tc.want)
			}
		})
	}
}

func TestToMillisClampsEachNegativeField(t *testing.T) {
	base := Units{Minutes: 3, Hours: 2, Days: 1, Weeks: 1}
	baseMs := ToMillis(base)
	if baseMs != 3*MinuteMs+2*HourMs+DayMs+WeekMs {
		t.Fatalf("unexpected base millis %d", baseMs)
	}

	cases := []struct {
		name    string
		units   Units
		without int64
	}{
		{name: "minutes", units: Units{Minutes: -3, Hours: 2, Days: 1, Weeks: 1}, without: 3 * MinuteMs},
		{name: "hours", units: Units{Minutes: 3, Hours: -2, Days: 1, Weeks: 1}, without: 2 * HourMs},
		{name: "days", units: Units{Minutes: 3, Hours: 2, Days: -1, Weeks: 1}, without: DayMs},
		{name: "weeks", units: Units{Minutes: 3, Hours: 2, Days: 1, Weeks: -1}, without: WeekMs},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got, want := ToMillis(tc.units), baseMs-tc.without; got != want {
				t.Fatalf("ToMillis(%+v) = %d, want %d", tc.units, got, want)
			}
		})
	}

	if got := ToMillis(Units{Minutes: -1, Hours: -1, Days: -1, Weeks: -1}); got != 0 {
		t.Fatalf("expected all-negative units to be zero, got %d", got)
	}
}

func TestRoundTripWithinOneMinute(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 1000; i++ {
		ms := r.Int64N(52 * WeekMs)
		got := ToMillis(ToUnits(ms))
		diff := ms - got
		if diff < 0 || diff >= MinuteMs {
			t.Fatalf("round trip of %d gave %d (diff %d)", ms, got, diff)
		}
	}
}

func TestUnitsDuration(t *testing.T) {
	u := Units{Hours: 1, Minutes: 30}
	if u.Duration() != 90*time.Minute {
		t.Fatalf("expected 90m, got %s", u.Duration())
	}
	if FromDuration(90*time.Minute) != u {
		t.Fatalf("FromDuration mismatch: %+v", FromDuration(90*time.Minute))
	}
	if !(Units{Minutes: -5}).IsZero() {
		t.Fatal("expected negative-only units to be zero")
	}
}

// Package banner holds the single transient notification shown in-app.
package banner

import (
	"sync"
	"time"
)

// DefaultDuration is how long a notification stays visible.
const DefaultDuration = 5 * time.Second

type Type string

const (
	Success Type = "success"
	Error   Type = "error"
)

type Notification struct {
	Type    Type   `json:"type"`
	Message string `json:"message"`
}

type timer interface {
	Stop() bool
}

// Surface shows at most one notification. A newer notification replaces the
// visible one and restarts the dismissal timer; a replaced notification's
// timer never dismisses its successor.
type Surface struct {
	mu       sync.Mutex
	current  *Notification
	gen      uint64
	timer    timer
	duration time.Duration
	onChange func(*Notification)

	afterFunc func(d time.Duration, f func()) timer
}

// New returns a surface with the given visibility window; zero means
// DefaultDuration. onChange, if set, is called with the visible notification
// (nil once dismissed) after every change, outside the lock.
func New(duration time.Duration, onChange func(*Notification)) *Surface {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Surface{
		duration: duration,
		onChange: onChange,
		afterFunc: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
	}
}

func (s *Surface) Show(t Type, message string) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	n := Notification{Type: t, Message: message}
	s.current = &n
	s.timer = s.afterFunc(s.duration, func() { s.expire(gen) })
	s.mu.Unlock()

	s.notify(&n)
}

func (s *Surface) Success(message string) { s.Show(Success, message) }
func (s *Surface) Error(message string)   { s.Show(Error, message) }

// Dismiss hides the visible notification early.
func (s *Surface) Dismiss() {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	s.current = nil
	s.mu.Unlock()

	s.notify(nil)
}

// Current returns the visible notification, if any.
func (s *Surface) Current() (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Notification{}, false
	}
	return *s.current, true
}

func (s *Surface) expire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.current == nil {
		s.mu.Unlock()
		return
	}
	s.current = nil
	s.timer = nil
	s.mu.Unlock()

	s.notify(nil)
}

func (s *Surface) notify(n *Notification) {
	if s.onChange != nil {
		s.onChange(n)
	}
}

// Package push fans a fired reminder out to every device of a user.
package push

import (
	"context"
	"errors"
	"fmt"

	"wordreminder/internal/logger"
	"wordreminder/internal/models"
)

// ErrUnregistered marks a token the push provider no longer recognises.
var ErrUnregistered = errors.New("push token is no longer registered")

type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Message is the payload delivered to one device.
type Message struct {
	Notification Notification      `json:"notification"`
	Token        string            `json:"token"`
	Data         map[string]string `json:"data,omitempty"`
}

// Sender delivers a single message to a single device.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Event is one coalesced firing for a user.
type Event struct {
	UserID int               `json:"user_id"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}

type Failure struct {
	Target string
	Err    error
}

// Report is the outcome of one fan-out.
type Report struct {
	Attempted int
	Delivered int
	Failures  []Failure
}

func (r *Report) merge(other Report) {
	r.Attempted += other.Attempted
	r.Delivered += other.Delivered
	r.Failures = append(r.Failures, other.Failures...)
}

// Channel delivers an event to every recipient it knows for the user. The
// returned error covers recipient lookup only; per recipient failures are in
// the report.
type Channel interface {
	Deliver(ctx context.Context, ev Event) (Report, error)
}

type TokenSource interface {
	GetByUserID(ctx context.Context, userID int) ([]models.PushToken, error)
	Delete(ctx context.Context, userID int, token string) error
}

// Dispatcher is the native push channel backed by a TokenSource.
type Dispatcher struct {
	tokens TokenSource
	sender Sender
}

func NewDispatcher(tokens TokenSource, sender Sender) *Dispatcher {
	return &Dispatcher{tokens: tokens, sender: sender}
}

// Deliver attempts every token of ev.UserID. A failed send never stops the
// remaining attempts; failures are logged and collected. Tokens reported as
// unregistered are removed.
func (d *Dispatcher) Deliver(ctx context.Context, ev Event) (Report, error) {
	var report Report

	tokens, err := d.tokens.GetByUserID(ctx, ev.UserID)
	if err != nil {
		return report, fmt.Errorf("fetch tokens for user %d: %w", ev.UserID, err)
	}
	if len(tokens) == 0 {
		return report, nil
	}

	seen := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		if seen[t.Token] {
			continue
		}
		seen[t.Token] = true

		report.Attempted++
		msg := Message{
			Notification: Notification{Title: ev.Title, Body: ev.Body},
			Token:        t.Token,
			Data:         ev.Data,
		}
		if err := d.sender.Send(ctx, msg); err != nil {
			report.Failures = append(report.Failures, Failure{Target: t.Token, Err: err})
			logger.Error("push delivery failed", "user_id", ev.UserID, "token", tokenPrefix(t.Token), "error", err)
			if errors.Is(err, ErrUnregistered) {
				if err := d.tokens.Delete(ctx, ev.UserID, t.Token); err != nil {
					logger.Warn("failed to prune unregistered token", "user_id", ev.UserID, "error", err)
				} else {
					logger.Info("pruned unregistered token", "user_id", ev.UserID, "token", tokenPrefix(t.Token))
				}
			}
			continue
		}
		report.Delivered++
	}

	logger.Debug("push fan-out finished", "user_id", ev.UserID, "attempted", report.Attempted,
		"delivered", report.Delivered, "failed", len(report.Failures))
	return report, nil
}

// Multi delivers an event over several channels. A lookup error on one
// channel does not skip the others.
type Multi []Channel

func (m Multi) Deliver(ctx context.Context, ev Event) (Report, error) {
	var report Report
	var errs []error
	for _, ch := range m {
		r, err := ch.Deliver(ctx, ev)
		report.merge(r)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return report, errors.Join(errs...)
}

func tokenPrefix(token string) string {
	if len(token) <= 12 {
		return token
	}
	return token[:12] + "..."
}

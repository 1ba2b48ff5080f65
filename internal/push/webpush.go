package push

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"wordreminder/internal/config"
	"wordreminder/internal/logger"
	"wordreminder/internal/models"
)

// WebPayload is the JSON the browser service worker receives.
type WebPayload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Icon  string            `json:"icon,omitempty"`
	Tag   string            `json:"tag,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

type SubscriptionSource interface {
	ListByUser(ctx context.Context, userID int) ([]models.PushSubscription, error)
	DeleteEndpoint(ctx context.Context, endpoint string) error
}

type webSendFunc func(ctx context.Context, payload []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error)

// WebPush is the browser push channel. Subscriptions answering 404 or 410
// are gone and get deleted; 403 means the VAPID keys changed and the client
// has to subscribe again, so those are deleted too.
type WebPush struct {
	subs    SubscriptionSource
	options *webpush.Options
	send    webSendFunc
}

func NewWebPush(subs SubscriptionSource, cfg config.PushConfig) *WebPush {
	return &WebPush{
		subs: subs,
		options: &webpush.Options{
			Subscriber:      cfg.VAPIDSubject,
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			TTL:             30,
		},
		send: webpush.SendNotificationWithContext,
	}
}

func (w *WebPush) Deliver(ctx context.Context, ev Event) (Report, error) {
	var report Report

	subs, err := w.subs.ListByUser(ctx, ev.UserID)
	if err != nil {
		return report, fmt.Errorf("fetch subscriptions for user %d: %w", ev.UserID, err)
	}
	if len(subs) == 0 {
		return report, nil
	}

	payload, err := json.Marshal(WebPayload{
		Title: ev.Title,
		Body:  ev.Body,
		Tag:   "word-reminder",
		Data:  ev.Data,
	})
	if err != nil {
		return report, fmt.Errorf("marshal web push payload: %w", err)
	}

	for _, sub := range subs {
		report.Attempted++
		err := w.deliverOne(ctx, payload, sub)
		if err != nil {
			report.Failures = append(report.Failures, Failure{Target: sub.Endpoint, Err: err})
			logger.Error("web push delivery failed", "user_id", ev.UserID, "endpoint", tokenPrefix(sub.Endpoint), "error", err)
			continue
		}
		report.Delivered++
	}
	return report, nil
}

func (w *WebPush) deliverOne(ctx context.Context, payload []byte, sub models.PushSubscription) error {
	resp, err := w.send(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
	}, w.options)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 400 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusGone, http.StatusForbidden:
		if err := w.subs.DeleteEndpoint(ctx, sub.Endpoint); err != nil {
			logger.Warn("failed to remove stale subscription", "endpoint", tokenPrefix(sub.Endpoint), "error", err)
		} else {
			logger.Info("removed stale subscription", "endpoint", tokenPrefix(sub.Endpoint), "status", resp.StatusCode)
		}
		return fmt.Errorf("%w: push service answered %d", ErrUnregistered, resp.StatusCode)
	}
	return fmt.Errorf("push service answered %d: %s", resp.StatusCode, string(body))
}

package store

import (
	"context"
	"database/sql"

	"wordreminder/internal/models"
)

// Subscriptions stores browser web push subscriptions.
type Subscriptions struct {
	db *sql.DB
}

func (s *Subscriptions) Upsert(ctx context.Context, sub models.PushSubscription) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO push_subscriptions (user_id, endpoint, p256dh, auth)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, endpoint) DO UPDATE SET
		p256dh = excluded.p256dh,
		auth = excluded.auth`,
		sub.UserID, sub.Endpoint, sub.P256dh, sub.Auth,
	)
	return err
}

func (s *Subscriptions) Delete(ctx context.Context, userID int, endpoint string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM push_subscriptions WHERE user_id = ? AND endpoint = ?",
		userID, endpoint,
	)
	return err
}

func (s *Subscriptions) ListByUser(ctx context.Context, userID int) ([]models.PushSubscription, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, endpoint, p256dh, auth FROM push_subscriptions WHERE user_id = ? ORDER BY id",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []models.PushSubscription{}
	for rows.Next() {
		var sub models.PushSubscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Endpoint, &sub.P256dh, &sub.Auth); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// DeleteEndpoint drops an endpoint the push service reported as gone.
func (s *Subscriptions) DeleteEndpoint(ctx context.Context, endpoint string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM push_subscriptions WHERE endpoint = ?", endpoint)
	return err
}

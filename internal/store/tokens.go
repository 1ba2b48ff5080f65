package store

import (
	"context"
	"database/sql"
	"fmt"

	"wordreminder/internal/models"
)

// TokenRegistry stores native push tokens. A (user_id, token) pair is kept at
// most once, so repeated registrations from one device never double-send.
type TokenRegistry struct {
	db *sql.DB
}

func NewTokenRegistry(db *sql.DB) *TokenRegistry {
	return &TokenRegistry{db: db}
}

// Create registers token for userID and returns the stored row. Calling it
// again with the same pair returns the existing row.
func (r *TokenRegistry) Create(ctx context.Context, userID int, token string) (models.PushToken, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO fcm_tokens (user_id, token) VALUES (?, ?)
		ON CONFLICT(user_id, token) DO NOTHING`,
		userID, token,
	); err != nil {
		return models.PushToken{}, fmt.Errorf("insert fcm token: %w", err)
	}

	var pt models.PushToken
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, token, created_at FROM fcm_tokens WHERE user_id = ? AND token = ?",
		userID, token,
	).Scan(&pt.ID, &pt.UserID, &pt.Token, &pt.CreatedAt)
	if err != nil {
		return models.PushToken{}, fmt.Errorf("load fcm token: %w", err)
	}
	return pt, nil
}

// GetByUserID returns the user's tokens oldest first. A user without tokens
// gets an empty slice.
func (r *TokenRegistry) GetByUserID(ctx context.Context, userID int) ([]models.PushToken, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, token, created_at FROM fcm_tokens WHERE user_id = ? ORDER BY id",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query fcm tokens: %w", err)
	}
	defer rows.Close()

	tokens := []models.PushToken{}
	for rows.Next() {
		var pt models.PushToken
		if err := rows.Scan(&pt.ID, &pt.UserID, &pt.Token, &pt.CreatedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, pt)
	}
	return tokens, rows.Err()
}

// Delete removes one registration. Deleting a missing token is not an error.
func (r *TokenRegistry) Delete(ctx context.Context, userID int, token string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM fcm_tokens WHERE user_id = ? AND token = ?", userID, token)
	return err
}

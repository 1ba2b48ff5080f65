package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"
)

var (
	ErrRefreshRevoked = errors.New("refresh token revoked")
	ErrRefreshExpired = errors.New("refresh token expired")
)

// RefreshTokens is the server-side store backing refresh token rotation.
// Only a SHA-256 of each token is persisted.
type RefreshTokens struct {
	db *sql.DB
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

func (r *RefreshTokens) Store(ctx context.Context, userID int, token string, expiresAt time.Time, ttlDays int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, expires_at, ttl_days) VALUES (?, ?, ?, ?)
		ON CONFLICT(token_hash) DO UPDATE SET
		expires_at = excluded.expires_at,
		ttl_days = excluded.ttl_days,
		revoked = 0`,
		userID, hashToken(token), expiresAt.UTC(), ttlDays,
	)
	return err
}

// Validate returns the owner and TTL of a live token.
func (r *RefreshTokens) Validate(ctx context.Context, token string, now time.Time) (userID, ttlDays int, err error) {
	var expiresAt time.Time
	var revoked bool
	err = r.db.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked, ttl_days FROM refresh_tokens WHERE token_hash = ?",
		hashToken(token),
	).Scan(&userID, &expiresAt, &revoked, &ttlDays)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, ErrNotFound
	}
	if err != nil {
		return 0, 0, err
	}
	if revoked {
		return 0, 0, ErrRefreshRevoked
	}
	if now.After(expiresAt) {
		return 0, 0, ErrRefreshExpired
	}
	return userID, ttlDays, nil
}

func (r *RefreshTokens) Revoke(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE refresh_tokens SET revoked = 1 WHERE token_hash = ?", hashToken(token))
	return err
}

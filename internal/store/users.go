package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wordreminder/internal/models"
)

type Users struct {
	db *sql.DB
}

// Create inserts a user. A taken email yields ErrConflict.
func (u *Users) Create(ctx context.Context, email, passwordHash string) (models.User, error) {
	res, err := u.db.ExecContext(ctx,
		"INSERT INTO users (email, password_hash) VALUES (?, ?)",
		email, passwordHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrConflict
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}
	return u.ByID(ctx, int(id))
}

func (u *Users) ByID(ctx context.Context, id int) (models.User, error) {
	return u.scanOne(u.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, last_seen_at, created_at FROM users WHERE id = ?", id))
}

func (u *Users) ByEmail(ctx context.Context, email string) (models.User, error) {
	return u.scanOne(u.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, last_seen_at, created_at FROM users WHERE email = ?", email))
}

func (u *Users) scanOne(row *sql.Row) (models.User, error) {
	var user models.User
	var lastSeen sql.NullTime
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &lastSeen, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	user.LastSeenAt = nullTimePtr(lastSeen)
	return user, nil
}

// TouchLastSeen records the start of a client session.
func (u *Users) TouchLastSeen(ctx context.Context, id int, at time.Time) error {
	_, err := u.db.ExecContext(ctx, "UPDATE users SET last_seen_at = ? WHERE id = ?", at.UTC(), id)
	return err
}

package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Session is a persisted refresh-token record. The token column stores a
// SHA-256 hash, never the raw token.
type Session struct {
	ID        string
	UserID    string
	UserAgent *string
	IP        *string
	ExpiresAt time.Time
}

type SessionsRepo struct {
	Pool *pgxpool.Pool
}

func (r SessionsRepo) Create(ctx context.Context, userID, tokenHash, userAgent, ip string, expiresAt time.Time) error {
	const q = `
INSERT INTO sessions (user_id, refresh_token, user_agent, ip, expires_at)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5)`
	_, err := r.Pool.Exec(ctx, q, userID, tokenHash, userAgent, ip, expiresAt)
	return err
}

func (r SessionsRepo) GetByTokenHash(ctx context.Context, tokenHash string) (Session, error) {
	const q = `
SELECT id::text, user_id::text, user_agent, ip, expires_at
FROM sessions WHERE refresh_token = $1`
	var s Session
	err := r.Pool.QueryRow(ctx, q, tokenHash).Scan(&s.ID, &s.UserID, &s.UserAgent, &s.IP, &s.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	return s, err
}

// Rotate swaps the session's refresh-token hash and extends its expiry.
func (r SessionsRepo) Rotate(ctx context.Context, sessionID, tokenHash string, expiresAt time.Time) error {
	const q = `UPDATE sessions SET refresh_token = $2, expires_at = $3 WHERE id = $1`
	tag, err := r.Pool.Exec(ctx, q, sessionID, tokenHash, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r SessionsRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := r.Pool.Exec(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, tokenHash)
	return err
}

func (r SessionsRepo) DeleteForUser(ctx context.Context, userID string) error {
	_, err := r.Pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/movie-reservation/internal/model"
)

// ErrTokenInvalid is returned for unknown, revoked or expired refresh tokens.
var ErrTokenInvalid = errors.New("invalid refresh token")

const (
	insertRefresh = `INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`
	lookupRefresh = `SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1`
	revokeRefresh = `UPDATE refresh_tokens SET revoked_at = CURRENT_TIMESTAMP WHERE revoked_at IS NULL AND `
)

// TokenRepo stores refresh tokens by their SHA-256 hash.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx, insertRefresh, userID, tokenHash, exp.UTC())
	return err
}

func (r *TokenRepo) lookup(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	t := model.RefreshToken{TokenHash: tokenHash}
	var revoked sql.NullTime
	if err := r.DB.QueryRowContext(ctx, lookupRefresh, tokenHash).Scan(&t.UserID, &t.ExpiresAt, &revoked); err != nil {
		return t, err
	}
	if revoked.Valid {
		t.RevokedAt = &revoked.Time
	}
	return t, nil
}

// ValidateRefresh returns the owner of a live token.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	t, err := r.lookup(ctx, tokenHash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, ErrTokenInvalid
	case err != nil:
		return 0, err
	case !t.Live(time.Now()):
		return 0, ErrTokenInvalid
	}
	return t.UserID, nil
}

// RevokeByHash revokes one live token. It returns ErrTokenInvalid when the
// token was unknown or already revoked, so only one caller can rotate it.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	res, err := r.DB.ExecContext(ctx, revokeRefresh+"token_hash=?", tokenHash)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrTokenInvalid
	}
	return nil
}

func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, revokeRefresh+"user_id=?", userID)
	return err
}

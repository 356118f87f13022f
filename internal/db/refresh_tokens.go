package db

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// RefreshTokenRepository is the persistent outstanding refresh-token set.
// Tokens are stored as sha256 hashes so a database leak exposes no usable
// refresh tokens.
type RefreshTokenRepository struct {
	db *DB
}

func NewRefreshTokenRepository(db *DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Insert(ctx context.Context, token, userID string, expiresAt time.Time) error {
	id, err := newID(refreshTokenIDPrefix)
	if err != nil {
		return fmt.Errorf("generating refresh token ID: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, userID, hashToken(token), expiresAt.UTC(), time.Now().UTC(),
	)
	if err != nil {
		if IsUniqueConstraintError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("creating refresh token: %w", err)
	}
	return nil
}

// Remove revokes token. Unknown or already revoked tokens are not an error.
func (r *RefreshTokenRepository) Remove(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ? WHERE token_hash = ? AND revoked_at IS NULL`,
		time.Now().UTC(), hashToken(token),
	)
	if err != nil {
		return fmt.Errorf("revoking refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) Contains(ctx context.Context, token string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM refresh_tokens WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > ?`,
		hashToken(token), time.Now().UTC(),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("querying refresh token: %w", err)
	}
	return count > 0, nil
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < ? OR revoked_at IS NOT NULL`,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting expired tokens: %w", err)
	}

	return result.RowsAffected()
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

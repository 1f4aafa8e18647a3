package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskhive/taskhive/internal/shared"
)

// RefreshTokenRepository defines persistence for tracked refresh tokens.
type RefreshTokenRepository interface {
	Track(ctx context.Context, ownerID, tokenHash string, expiresAt time.Time) (*RefreshToken, error)
	GetByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RevokeAll(ctx context.Context, ownerID string) (int64, error)
	PurgeDead(ctx context.Context, cutoff time.Time) (int64, error)
}

// PGRepository implements RefreshTokenRepository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Track stores the hash of a newly issued refresh token. A hash collision
// with an existing row reports shared.ErrDuplicate.
func (r *PGRepository) Track(ctx context.Context, ownerID, tokenHash string, expiresAt time.Time) (*RefreshToken, error) {
	token := RefreshToken{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO refresh_tokens (id, owner_id, token_hash, expires_at, created_at) VALUES ($1, $2, $3, $4, $5)`,
		token.ID, token.OwnerID, token.TokenHash, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return nil, shared.ErrDuplicate
		}
		return nil, err
	}
	return &token, nil
}

// GetByHash fetches a tracked token by its hash.
func (r *PGRepository) GetByHash(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	var t RefreshToken
	err := r.pool.QueryRow(ctx, `SELECT id, owner_id, token_hash, expires_at, revoked_at, created_at FROM refresh_tokens WHERE token_hash = $1`, tokenHash).
		Scan(&t.ID, &t.OwnerID, &t.TokenHash, &t.ExpiresAt, &t.RevokedAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// RevokeAll marks every live token of the owner revoked and reports how
// many rows were touched.
func (r *PGRepository) RevokeAll(ctx context.Context, ownerID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE refresh_tokens SET revoked_at = NOW() WHERE owner_id = $1 AND revoked_at IS NULL`, ownerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// PurgeDead deletes rows whose tokens expired or were revoked before
// cutoff.
func (r *PGRepository) PurgeDead(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1 OR (revoked_at IS NOT NULL AND revoked_at < $1)`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ RefreshTokenRepository = (*PGRepository)(nil)

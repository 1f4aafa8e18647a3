package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/taskhive/taskhive/internal/shared"
)

// Service wraps refresh-token tracking rules. Access tokens stay
// stateless and are never stored; refresh tokens are recorded by hash so
// they can be revoked.
type Service struct {
	repo RefreshTokenRepository
	now  func() time.Time
}

// NewService constructs a new Service.
func NewService(repo RefreshTokenRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// HashToken derives the stored digest of a raw refresh token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Track records a newly issued refresh token.
func (s *Service) Track(ctx context.Context, ownerID, rawToken string, expiresAt time.Time) (*RefreshToken, error) {
	return s.repo.Track(ctx, ownerID, HashToken(rawToken), expiresAt)
}

// Active reports whether the raw token is tracked, unrevoked and
// unexpired. Unknown tokens are inactive, not an error.
func (s *Service) Active(ctx context.Context, rawToken string) (bool, error) {
	token, err := s.repo.GetByHash(ctx, HashToken(rawToken))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return token.Usable(s.now()), nil
}

// RevokeAll revokes every live refresh token belonging to the identity.
func (s *Service) RevokeAll(ctx context.Context, identity Identity) (int64, error) {
	return s.repo.RevokeAll(ctx, identity.SubjectID)
}

// PurgeDead removes rows whose tokens expired or were revoked more than
// retention ago.
func (s *Service) PurgeDead(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.PurgeDead(ctx, s.now().Add(-retention))
}

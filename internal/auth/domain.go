package auth

import "time"

// RefreshToken is a tracked credential issued by the external auth
// service. Only its hash is stored here; the raw token never touches
// this service's storage.
type RefreshToken struct {
	ID        string
	OwnerID   string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Usable reports whether the token is unrevoked and unexpired at now.
func (t RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

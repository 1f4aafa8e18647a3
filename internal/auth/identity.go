package auth

import "context"

// Identity is the authenticated caller, derived from a verified bearer
// token. It is request-scoped, immutable, and carries no privileges
// beyond tenant membership.
type Identity struct {
	SubjectID string
}

type identityContextKey struct{}

// WithIdentity returns a new context with the identity attached.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext retrieves the identity, reporting whether one is set.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

// MustIdentity retrieves the identity, panicking when absent. Handlers
// mounted behind the gate may rely on it being present.
func MustIdentity(ctx context.Context) Identity {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		panic("auth: identity not found in context")
	}
	return id
}

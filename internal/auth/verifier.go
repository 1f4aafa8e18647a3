package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Reason classifies why a request failed authentication.
type Reason string

const (
	ReasonMissing          Reason = "missing"
	ReasonMalformed        Reason = "malformed"
	ReasonExpired          Reason = "expired"
	ReasonInvalidSignature Reason = "invalid_signature"
	ReasonMissingSubject   Reason = "missing_subject"
)

// AuthError is a typed verification failure. The reason feeds the audit
// log only; every reason maps to the same generic 401 on the wire.
type AuthError struct {
	Reason Reason
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("auth: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Verifier validates bearer tokens and extracts the caller identity. It
// holds only the HMAC secret shared with the credential issuance service
// and is safe for concurrent use.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier with the given HMAC secret.
func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

// Verify validates raw as an HS256-signed JWT and returns the identity
// carried in its sub claim. Failures are always *AuthError.
func (v *Verifier) Verify(raw string) (Identity, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Identity{}, &AuthError{Reason: ReasonExpired, Err: err}
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Identity{}, &AuthError{Reason: ReasonMalformed, Err: err}
		case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
			return Identity{}, &AuthError{Reason: ReasonMalformed, Err: err}
		default:
			return Identity{}, &AuthError{Reason: ReasonInvalidSignature, Err: err}
		}
	}

	if !token.Valid {
		return Identity{}, &AuthError{Reason: ReasonInvalidSignature}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, &AuthError{Reason: ReasonMalformed}
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return Identity{}, &AuthError{Reason: ReasonMissingSubject}
	}

	return Identity{SubjectID: sub}, nil
}

// Mint signs a token for subject, valid for ttl. It serves tests, seeding
// and local development; production issuance belongs to the external
// credential service holding the same secret.
func (v *Verifier) Mint(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

const unauthorizedBody = `{"detail":"authentication required"}`

// DecisionRecorder counts gate outcomes for monitoring.
type DecisionRecorder interface {
	RecordAuthDecision(outcome string)
}

// Gate authenticates every request before it reaches a handler. Paths on
// the allow-list pass through without credentials; everything else needs
// a valid bearer token or is answered 401 before any business logic runs.
type Gate struct {
	verifier *Verifier
	logger   *slog.Logger
	public   map[string]struct{}
	recorder DecisionRecorder
}

// NewGate builds the gate middleware. publicPaths are exact-match routes
// served without credentials; a nil recorder disables outcome counting.
func NewGate(verifier *Verifier, logger *slog.Logger, publicPaths []string, recorder DecisionRecorder) *Gate {
	public := make(map[string]struct{}, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = struct{}{}
	}
	return &Gate{verifier: verifier, logger: logger, public: public, recorder: recorder}
}

// DefaultPublicPaths lists the routes served without credentials:
// liveness, metrics, and the credential issuance endpoints that live
// outside this service but share its proxy.
func DefaultPublicPaths() []string {
	return []string{
		"/healthz",
		"/metrics",
		"/api/v1/auth/register",
		"/api/v1/auth/login",
		"/api/v1/auth/refresh",
		"/api/v1/auth/forgot-password",
		"/api/v1/auth/reset-password",
	}
}

// Middleware enforces the gate. On success the identity is bound into the
// request context; handlers read it and never write it.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := g.public[r.URL.Path]; ok {
			g.record("public")
			g.logger.Debug("auth gate",
				slog.String("outcome", "public"),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			next.ServeHTTP(w, r)
			return
		}

		var identity Identity
		raw, authErr := extractBearerToken(r.Header.Get("Authorization"))
		if authErr == nil {
			var err error
			identity, err = g.verifier.Verify(raw)
			if err != nil && !errors.As(err, &authErr) {
				authErr = &AuthError{Reason: ReasonInvalidSignature, Err: err}
			}
		}
		if authErr != nil {
			g.reject(w, r, authErr)
			return
		}

		g.record("allowed")
		g.logger.Info("auth gate",
			slog.String("outcome", "allowed"),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("subject", identity.SubjectID),
		)
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// reject answers 401 with the one generic body. The reason goes to the
// log, never to the client.
func (g *Gate) reject(w http.ResponseWriter, r *http.Request, authErr *AuthError) {
	g.record("rejected")
	g.logger.Warn("auth gate",
		slog.String("outcome", "rejected"),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("reason", string(authErr.Reason)),
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(unauthorizedBody))
}

func (g *Gate) record(outcome string) {
	if g.recorder != nil {
		g.recorder.RecordAuthDecision(outcome)
	}
}

// extractBearerToken pulls the raw token out of an Authorization header.
func extractBearerToken(header string) (string, *AuthError) {
	if header == "" {
		return "", &AuthError{Reason: ReasonMissing}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", &AuthError{Reason: ReasonMalformed}
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" {
		return "", &AuthError{Reason: ReasonMalformed}
	}
	return token, nil
}

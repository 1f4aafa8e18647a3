package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskhive/taskhive/internal/platform/httpx"
)

// Handler wires the token lifecycle endpoints that live inside this
// service. Issuance endpoints are external; the gate only allow-lists
// their paths.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/logout", h.handleLogout)
}

// handleLogout revokes every refresh token of the caller. The access
// token keeps working until exp; revocation only stops future refreshes.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	identity := MustIdentity(r.Context())

	revoked, err := h.service.RevokeAll(r.Context(), identity)
	if err != nil {
		h.logger.Error("revoke refresh tokens", slog.Any("error", err), slog.String("subject", identity.SubjectID))
		httpx.RespondError(w, err)
		return
	}

	h.logger.Info("logout", slog.String("subject", identity.SubjectID), slog.Int64("revoked", revoked))
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

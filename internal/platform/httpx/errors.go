package httpx

import (
	"errors"
	"net/http"

	"github.com/taskhive/taskhive/internal/shared"
)

// RespondError maps domain errors onto the wire contract. Messages are
// fixed per status so wrapped internals never reach the client; callers
// log the underlying error before handing it here.
func RespondError(w http.ResponseWriter, err error) {
	var ve *shared.ValidationError
	switch {
	case errors.As(err, &ve):
		FieldErrors(w, map[string]string{ve.Field: ve.Message})
	case errors.Is(err, shared.ErrNotFound):
		Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, shared.ErrDuplicate):
		Error(w, http.StatusConflict, "duplicate")
	case errors.Is(err, shared.ErrUnauthorized):
		Error(w, http.StatusUnauthorized, "authentication required")
	default:
		Error(w, http.StatusInternalServerError, "internal server error")
	}
}

package tasks

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/platform/httpx"
	"github.com/taskhive/taskhive/internal/shared"
)

// Handler manages task endpoints. All routes live behind the gate, so
// a verified identity is always present on the request context.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers task routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.createTask)
	r.Get("/", h.listTasks)
	r.Get("/{taskID}", h.getTask)
	r.Patch("/{taskID}", h.updateTask)
	r.Patch("/{taskID}/complete", h.toggleComplete)
	r.Delete("/{taskID}", h.deleteTask)
}

// ============================================================================
// TASK HANDLERS
// ============================================================================

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentity(r.Context())

	var req CreateTaskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if fields := h.validateStruct(req); fields != nil {
		httpx.FieldErrors(w, fields)
		return
	}

	task, err := h.service.CreateTask(r.Context(), identity, req)
	if err != nil {
		h.respondError(w, "create task", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, task)
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentity(r.Context())

	filter, err := parseListQuery(r)
	if err != nil {
		h.respondError(w, "list tasks", err)
		return
	}

	page, err := h.service.ListTasks(r.Context(), identity, filter)
	if err != nil {
		h.respondError(w, "list tasks", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentity(r.Context())

	task, err := h.service.GetTask(r.Context(), identity, chi.URLParam(r, "taskID"))
	if err != nil {
		h.respondError(w, "get task", err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentity(r.Context())

	var patch UpdateTaskRequest
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}
	if fields := h.validateStruct(patch); fields != nil {
		httpx.FieldErrors(w, fields)
		return
	}

	task, err := h.service.UpdateTask(r.Context(), identity, chi.URLParam(r, "taskID"), patch)
	if err != nil {
		h.respondError(w, "update task", err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) toggleComplete(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentity(r.Context())

	task, err := h.service.ToggleComplete(r.Context(), identity, chi.URLParam(r, "taskID"))
	if err != nil {
		h.respondError(w, "toggle task", err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentity(r.Context())

	if err := h.service.DeleteTask(r.Context(), identity, chi.URLParam(r, "taskID")); err != nil {
		h.respondError(w, "delete task", err)
		return
	}
	httpx.NoContent(w)
}

// ============================================================================
// HELPERS
// ============================================================================

// parseListQuery reads the list filter from the query string. Bounds are
// clamped later; only non-numeric values are rejected here.
func parseListQuery(r *http.Request) (ListTasksRequest, error) {
	q := r.URL.Query()
	var req ListTasksRequest
	if raw := q.Get("status"); raw != "" {
		status := TaskStatus(raw)
		req.Status = &status
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, shared.NewValidationError("limit", "must be an integer")
		}
		req.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, shared.NewValidationError("offset", "must be an integer")
		}
		req.Offset = n
	}
	return req, nil
}

func (h *Handler) validateStruct(v any) map[string]string {
	err := h.validator.Struct(v)
	if err == nil {
		return nil
	}
	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["body"] = "is invalid"
		return fields
	}
	for _, fieldErr := range verrs {
		fields[strings.ToLower(fieldErr.Field())] = tagMessage(fieldErr)
	}
	return fields
}

func tagMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fieldErr.Param() + " characters"
	default:
		return "is invalid"
	}
}

// respondError maps the error onto the wire and logs only the
// unexpected ones; not-found and validation failures are normal flow.
func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	var ve *shared.ValidationError
	if !errors.Is(err, shared.ErrNotFound) && !errors.As(err, &ve) {
		h.logger.Error(action, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/shared"
)

// Auditor records audit trail entries for task mutations.
type Auditor interface {
	Record(ctx context.Context, entry shared.AuditLog) error
}

// Service provides business logic for task operations. Every method
// requires the verified caller identity; owners are never read from
// request payloads.
type Service struct {
	repo   Repository
	audit  Auditor
	logger *slog.Logger
}

// NewService constructs a task service. audit may be nil to disable the
// trail.
func NewService(repo Repository, audit Auditor, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// ============================================================================
// VALIDATION
// ============================================================================

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", shared.NewValidationError("title", "must not be empty")
	}
	if utf8.RuneCountInString(title) > TitleMaxLen {
		return "", shared.NewValidationError("title", fmt.Sprintf("must be at most %d characters", TitleMaxLen))
	}
	return title, nil
}

func validateDescription(desc *string) error {
	if desc != nil && utf8.RuneCountInString(*desc) > DescriptionMaxLen {
		return shared.NewValidationError("description", fmt.Sprintf("must be at most %d characters", DescriptionMaxLen))
	}
	return nil
}

func validateStatus(status TaskStatus) error {
	if !status.Valid() {
		return shared.NewValidationError("status", "must be one of Pending, In Progress, Completed, Archived")
	}
	return nil
}

// ============================================================================
// TASK OPERATIONS
// ============================================================================

// CreateTask validates the draft and stores it for the caller. Status
// defaults to Pending when absent.
func (s *Service) CreateTask(ctx context.Context, identity auth.Identity, req CreateTaskRequest) (*Task, error) {
	title, err := validateTitle(req.Title)
	if err != nil {
		return nil, err
	}
	if err := validateDescription(req.Description); err != nil {
		return nil, err
	}
	status := StatusPending
	if req.Status != nil {
		if err := validateStatus(*req.Status); err != nil {
			return nil, err
		}
		status = *req.Status
	}

	task, err := s.repo.Create(ctx, identity, Task{Title: title, Description: req.Description, Status: status})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, identity, "task.create", task.ID, map[string]any{"status": string(task.Status)})
	return task, nil
}

// GetTask fetches one of the caller's tasks.
func (s *Service) GetTask(ctx context.Context, identity auth.Identity, id string) (*Task, error) {
	return s.repo.GetByID(ctx, identity, id)
}

// ListTasks returns one page of the caller's tasks with the total count
// for the same filter.
func (s *Service) ListTasks(ctx context.Context, identity auth.Identity, filter ListTasksRequest) (*TaskListResponse, error) {
	if filter.Status != nil {
		if err := validateStatus(*filter.Status); err != nil {
			return nil, err
		}
	}
	page := shared.NewPage(filter.Limit, filter.Offset)
	items, total, err := s.repo.List(ctx, identity, filter)
	if err != nil {
		return nil, err
	}
	return &TaskListResponse{Data: items, Total: total, Offset: page.Offset, Limit: page.Limit}, nil
}

// UpdateTask applies a partial patch to one of the caller's tasks. An
// empty patch returns the current row without touching updated_at.
func (s *Service) UpdateTask(ctx context.Context, identity auth.Identity, id string, patch UpdateTaskRequest) (*Task, error) {
	if patch.IsEmpty() {
		return s.repo.GetByID(ctx, identity, id)
	}
	if patch.Title != nil {
		title, err := validateTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		patch.Title = &title
	}
	if err := validateDescription(patch.Description); err != nil {
		return nil, err
	}
	if patch.Status != nil {
		if err := validateStatus(*patch.Status); err != nil {
			return nil, err
		}
	}

	task, err := s.repo.Update(ctx, identity, id, patch)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, identity, "task.update", task.ID, map[string]any{"status": string(task.Status)})
	return task, nil
}

// ToggleComplete flips the completion state of one of the caller's
// tasks.
func (s *Service) ToggleComplete(ctx context.Context, identity auth.Identity, id string) (*Task, error) {
	task, err := s.repo.ToggleComplete(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, identity, "task.toggle", task.ID, map[string]any{"status": string(task.Status)})
	return task, nil
}

// DeleteTask removes one of the caller's tasks.
func (s *Service) DeleteTask(ctx context.Context, identity auth.Identity, id string) error {
	if err := s.repo.Delete(ctx, identity, id); err != nil {
		return err
	}
	s.recordAudit(ctx, identity, "task.delete", id, nil)
	return nil
}

// recordAudit writes a trail entry. Failures are logged and never fail
// the request.
func (s *Service) recordAudit(ctx context.Context, identity auth.Identity, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entry := shared.AuditLog{
		ActorID:  identity.SubjectID,
		Action:   action,
		Entity:   "task",
		EntityID: entityID,
		Meta:     meta,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record failed", "action", action, "entity_id", entityID, "error", err)
	}
}

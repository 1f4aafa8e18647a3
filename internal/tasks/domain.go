package tasks

import (
	"time"
)

// TaskStatus enumerates the lifecycle states of a task. The wire strings
// are part of the API contract.
type TaskStatus string

const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
	StatusArchived   TaskStatus = "Archived"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// Field bounds shared by validation and storage.
const (
	TitleMaxLen       = 255
	DescriptionMaxLen = 2000
)

// Task is a single unit of work owned by exactly one tenant. The owner
// is fixed at creation and never changes; the wire exposes it as
// user_id.
type Task struct {
	ID          string     `json:"id" db:"id"`
	OwnerID     string     `json:"user_id" db:"owner_id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description" db:"description"`
	Status      TaskStatus `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// CreateTaskRequest is the payload for creating a task. It deliberately
// carries no owner field: ownership always comes from the verified
// identity.
type CreateTaskRequest struct {
	Title       string      `json:"title" validate:"required,max=255"`
	Description *string     `json:"description,omitempty" validate:"omitempty,max=2000"`
	Status      *TaskStatus `json:"status,omitempty"`
}

// UpdateTaskRequest is a partial update. Nil fields keep their stored
// values.
type UpdateTaskRequest struct {
	Title       *string     `json:"title,omitempty" validate:"omitempty,max=255"`
	Description *string     `json:"description,omitempty" validate:"omitempty,max=2000"`
	Status      *TaskStatus `json:"status,omitempty"`
}

// IsEmpty reports whether the update carries no fields at all.
func (r UpdateTaskRequest) IsEmpty() bool {
	return r.Title == nil && r.Description == nil && r.Status == nil
}

// ListTasksRequest filters a listing. Out-of-range bounds are clamped
// by shared.NewPage, not rejected. The owner scope is never part of it;
// the repository applies that from the identity.
type ListTasksRequest struct {
	Status *TaskStatus `json:"status,omitempty"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// TaskListResponse is the paginated wire envelope for listings.
type TaskListResponse struct {
	Data   []Task `json:"data"`
	Total  int    `json:"total"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

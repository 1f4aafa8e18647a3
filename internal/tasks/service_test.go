package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/shared"
)

// ============================================================================
// MOCK DEPENDENCIES
// ============================================================================

// fakeRepo mirrors the owner-scoping rules of the SQL repository: a row
// belonging to another owner behaves exactly like a row that does not
// exist.
type fakeRepo struct {
	items []*Task
	seq   int

	createErr error
	getErr    error
	listErr   error
	updateErr error
	toggleErr error
	deleteErr error

	updateCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{}
}

func (f *fakeRepo) Create(ctx context.Context, identity auth.Identity, draft Task) (*Task, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.seq++
	now := time.Now().UTC()
	task := draft
	task.ID = fmt.Sprintf("task-%d", f.seq)
	task.OwnerID = identity.SubjectID
	task.CreatedAt = now
	task.UpdatedAt = now
	stored := task
	f.items = append(f.items, &stored)
	return &task, nil
}

func (f *fakeRepo) find(identity auth.Identity, id string) *Task {
	for _, t := range f.items {
		if t.ID == id && t.OwnerID == identity.SubjectID {
			return t
		}
	}
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, identity auth.Identity, id string) (*Task, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	t := f.find(identity, id)
	if t == nil {
		return nil, shared.ErrNotFound
	}
	out := *t
	return &out, nil
}

func (f *fakeRepo) List(ctx context.Context, identity auth.Identity, filter ListTasksRequest) ([]Task, int, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	var matched []Task
	// Newest first, like the ORDER BY created_at DESC in SQL.
	for i := len(f.items) - 1; i >= 0; i-- {
		t := f.items[i]
		if t.OwnerID != identity.SubjectID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		matched = append(matched, *t)
	}
	total := len(matched)

	page := shared.NewPage(filter.Limit, filter.Offset)
	if page.Offset >= len(matched) {
		return []Task{}, total, nil
	}
	matched = matched[page.Offset:]
	if len(matched) > page.Limit {
		matched = matched[:page.Limit]
	}
	return matched, total, nil
}

func (f *fakeRepo) Update(ctx context.Context, identity auth.Identity, id string, patch UpdateTaskRequest) (*Task, error) {
	f.updateCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	t := f.find(identity, id)
	if t == nil {
		return nil, shared.ErrNotFound
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = patch.Description
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	t.UpdatedAt = bumped(t.UpdatedAt)
	out := *t
	return &out, nil
}

func (f *fakeRepo) ToggleComplete(ctx context.Context, identity auth.Identity, id string) (*Task, error) {
	if f.toggleErr != nil {
		return nil, f.toggleErr
	}
	t := f.find(identity, id)
	if t == nil {
		return nil, shared.ErrNotFound
	}
	if t.Status == StatusCompleted {
		t.Status = StatusPending
	} else {
		t.Status = StatusCompleted
	}
	t.UpdatedAt = bumped(t.UpdatedAt)
	out := *t
	return &out, nil
}

func (f *fakeRepo) Delete(ctx context.Context, identity auth.Identity, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, t := range f.items {
		if t.ID == id && t.OwnerID == identity.SubjectID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

// bumped moves updated_at strictly forward even when the clock has not
// advanced, like GREATEST(NOW(), updated_at + 1us) in SQL.
func bumped(prev time.Time) time.Time {
	now := time.Now().UTC()
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}

var _ Repository = (*fakeRepo)(nil)

type fakeAuditor struct {
	entries []shared.AuditLog
	err     error
}

func (f *fakeAuditor) Record(ctx context.Context, entry shared.AuditLog) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

var _ Auditor = (*fakeAuditor)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ident(subject string) auth.Identity {
	return auth.Identity{SubjectID: subject}
}

func strPtr(s string) *string { return &s }

func statusPtr(s TaskStatus) *TaskStatus { return &s }

// ============================================================================
// CREATE
// ============================================================================

func TestCreateTaskDefaultsAndTrims(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, discardLogger())

	task, err := svc.CreateTask(context.Background(), ident("owner-a"), CreateTaskRequest{Title: "  Write report  "})
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "owner-a", task.OwnerID)
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, StatusPending, task.Status)
	assert.Nil(t, task.Description)
}

func TestCreateTaskKeepsProvidedStatus(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, discardLogger())

	task, err := svc.CreateTask(context.Background(), ident("owner-a"), CreateTaskRequest{
		Title:  "Review PR",
		Status: statusPtr(StatusInProgress),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, task.Status)
}

func TestCreateTaskValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   CreateTaskRequest
		field string
	}{
		{"empty title", CreateTaskRequest{Title: ""}, "title"},
		{"whitespace title", CreateTaskRequest{Title: "   \t "}, "title"},
		{"title too long", CreateTaskRequest{Title: strings.Repeat("x", 256)}, "title"},
		{"description too long", CreateTaskRequest{Title: "ok", Description: strPtr(strings.Repeat("d", 2001))}, "description"},
		{"unknown status", CreateTaskRequest{Title: "ok", Status: statusPtr(TaskStatus("Done"))}, "status"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeRepo()
			svc := NewService(repo, nil, discardLogger())

			_, err := svc.CreateTask(context.Background(), ident("owner-a"), tc.req)

			var ve *shared.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
			assert.Empty(t, repo.items, "nothing may be stored on validation failure")
		})
	}
}

func TestCreateTaskBoundaryLengthsPass(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, discardLogger())

	task, err := svc.CreateTask(context.Background(), ident("owner-a"), CreateTaskRequest{
		Title:       strings.Repeat("t", 255),
		Description: strPtr(strings.Repeat("d", 2000)),
	})
	require.NoError(t, err)
	assert.Len(t, task.Title, 255)
}

// ============================================================================
// LIST
// ============================================================================

func TestListTasksScopedToOwner(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, discardLogger())
	ctx := context.Background()

	_, err := svc.CreateTask(ctx, ident("owner-a"), CreateTaskRequest{Title: "a1"})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, ident("owner-a"), CreateTaskRequest{Title: "a2"})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, ident("owner-b"), CreateTaskRequest{Title: "b1"})
	require.NoError(t, err)

	pageA, err := svc.ListTasks(ctx, ident("owner-a"), ListTasksRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, pageA.Total)
	for _, task := range pageA.Data {
		assert.Equal(t, "owner-a", task.OwnerID)
	}

	pageB, err := svc.ListTasks(ctx, ident("owner-b"), ListTasksRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, pageB.Total)
	assert.Equal(t, "b1", pageB.Data[0].Title)
}

func TestListTasksClampsBounds(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, discardLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.CreateTask(ctx, ident("owner-a"), CreateTaskRequest{Title: fmt.Sprintf("task %d", i)})
		require.NoError(t, err)
	}

	page, err := svc.ListTasks(ctx, ident("owner-a"), ListTasksRequest{Limit: 500, Offset: -5})
	require.NoError(t, err)
	assert.Equal(t, shared.MaxLimit, page.Limit)
	assert.Equal(t, 0, page.Offset)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Data, 3)
}

func TestListTasksStatusFilter(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, discardLogger())
	ctx := context.Background()

	_, err := svc.CreateTask(ctx, ident("owner-a"), CreateTaskRequest{Title: "open"})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, ident("owner-a"), CreateTaskRequest{Title: "done", Status: statusPtr(StatusCompleted)})
	require.NoError(t, err)

	page, err := svc.ListTasks(ctx, ident("owner-a"), ListTasksRequest{Status: statusPtr(StatusCompleted)})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "done", page.Data[0].Title)

	_, err = svc.ListTasks(ctx, ident("owner-a"), ListTasksRequest{Status: statusPtr(TaskStatus("Bogus"))})
	var ve *shared.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "status", ve.Field)
}

func TestListTasksEmptyPage(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, discardLogger())

	page, err := svc.ListTasks(context.Background(), ident("owner-a"), ListTasksRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.NotNil(t, page.Data)
	assert.Len(t, page.Data, 0)
}

// ============================================================================
// UPDATE / TOGGLE
// ============================================================================

func TestUpdateTaskEmptyPatchLeavesRowAlone(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, discardLogger())
	ctx := context.Background()

	created, err := svc.CreateTask(ctx, ident("owner-a"), CreateTaskRequest{Title: "untouched"})
	require.NoError(t, err)

	got, err := svc.UpdateTask(ctx, ident("owner-a"), created.ID, UpdateTaskRequest{})
	require.NoError(t, err)
	assert.Equal(t, created.UpdatedAt, got.UpdatedAt)
	assert.Zero(t, repo.updateCalls, "empty patch must not issue an update")
}

func TestUpdateTaskPatchesFields(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, discardLogger())
	ctx := context.Background()

	created, err := svc.CreateTask(ctx, ident("owner-a"), CreateTaskRequest{Title: "draft"})
	require.NoError(t, err)

	got, err := svc.UpdateTask(ctx, ident("owner-a"), created.ID, UpdateTaskRequest{
		Title:       strPtr("  final  "),
		Description: strPtr("ship it"),
		Status:      statusPtr(StatusInProgress),
	})
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "ship it", *got.Description)
	assert.Equal(t, StatusInProgress, got.Status)
	assert.True(t, got.UpdatedAt.After(created.UpdatedAt), "updated_at must move strictly forward")
}

func TestUpdateTaskValidation(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, discardLogger())
	ctx := context.Background()

	created, err := svc.CreateTask(ctx, ident("owner-a"), CreateTaskRequest{Title: "keep"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		patch UpdateTaskRequest
		field string
	}{
		{"blank title", UpdateTaskRequest{Title: strPtr("   ")}, "title"},
		{"title too long", UpdateTaskRequest{Title: strPtr(strings.Repeat("x", 256))}, "title"},
		{"description too long", UpdateTaskRequest{Description: strPtr(strings.Repeat("d", 2001))}, "description"},
		{"unknown status", UpdateTaskRequest{Status: statusPtr(TaskStatus("Paused"))}, "status"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpdateTask(ctx, ident("owner-a"), created.ID, tc.patch)
			var ve *shared.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}

	got, err := svc.GetTask(ctx, ident("owner-a"), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep", got.Title)
}

func TestToggleCompleteFlipsBothWays(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, discardLogger())
	ctx := context.Background()

	created, err := svc.CreateTask(ctx, ident("owner-a"), CreateTaskRequest{Title: "flip me"})
	require.NoError(t, err)

	got, err := svc.ToggleComplete(ctx, ident("owner-a"), created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	got, err = svc.ToggleComplete(ctx, ident("owner-a"), created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}

func TestToggleCompleteFromAnyStatusCompletes(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, discardLogger())
	ctx := context.Background()

	for _, status := range []TaskStatus{StatusInProgress, StatusArchived} {
		created, err := svc.CreateTask(ctx, ident("owner-a"), CreateTaskRequest{Title: "any", Status: statusPtr(status)})
		require.NoError(t, err)

		got, err := svc.ToggleComplete(ctx, ident("owner-a"), created.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, got.Status)
	}
}

// ============================================================================
// ISOLATION / DELETE
// ============================================================================

func TestCrossOwnerAccessIsNotFound(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, discardLogger())
	ctx := context.Background()

	created, err := svc.CreateTask(ctx, ident("owner-a"), CreateTaskRequest{Title: "private"})
	require.NoError(t, err)

	intruder := ident("owner-b")

	_, err = svc.GetTask(ctx, intruder, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.UpdateTask(ctx, intruder, created.ID, UpdateTaskRequest{Title: strPtr("stolen")})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.ToggleComplete(ctx, intruder, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	err = svc.DeleteTask(ctx, intruder, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	// The owner still sees the row untouched.
	got, err := svc.GetTask(ctx, ident("owner-a"), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "private", got.Title)
}

func TestDeleteTask(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, discardLogger())
	ctx := context.Background()

	created, err := svc.CreateTask(ctx, ident("owner-a"), CreateTaskRequest{Title: "gone soon"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTask(ctx, ident("owner-a"), created.ID))

	err = svc.DeleteTask(ctx, ident("owner-a"), created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

// ============================================================================
// AUDIT TRAIL
// ============================================================================

func TestMutationsRecordAuditTrail(t *testing.T) {
	repo := newFakeRepo()
	audit := &fakeAuditor{}
	svc := NewService(repo, audit, discardLogger())
	ctx := context.Background()

	created, err := svc.CreateTask(ctx, ident("owner-a"), CreateTaskRequest{Title: "tracked"})
	require.NoError(t, err)
	_, err = svc.UpdateTask(ctx, ident("owner-a"), created.ID, UpdateTaskRequest{Title: strPtr("tracked v2")})
	require.NoError(t, err)
	_, err = svc.ToggleComplete(ctx, ident("owner-a"), created.ID)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteTask(ctx, ident("owner-a"), created.ID))

	require.Len(t, audit.entries, 4)
	actions := make([]string, 0, len(audit.entries))
	for _, entry := range audit.entries {
		actions = append(actions, entry.Action)
		assert.Equal(t, "owner-a", entry.ActorID)
		assert.Equal(t, "task", entry.Entity)
		assert.Equal(t, created.ID, entry.EntityID)
	}
	assert.Equal(t, []string{"task.create", "task.update", "task.toggle", "task.delete"}, actions)
}

func TestAuditFailureDoesNotFailMutation(t *testing.T) {
	repo := newFakeRepo()
	audit := &fakeAuditor{err: fmt.Errorf("audit store down")}
	svc := NewService(repo, audit, discardLogger())

	task, err := svc.CreateTask(context.Background(), ident("owner-a"), CreateTaskRequest{Title: "still works"})
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
}

// Reads do not generate trail entries.
func TestReadsAreNotAudited(t *testing.T) {
	repo := newFakeRepo()
	audit := &fakeAuditor{}
	svc := NewService(repo, audit, discardLogger())
	ctx := context.Background()

	created, err := svc.CreateTask(ctx, ident("owner-a"), CreateTaskRequest{Title: "read me"})
	require.NoError(t, err)
	audit.entries = nil

	_, err = svc.GetTask(ctx, ident("owner-a"), created.ID)
	require.NoError(t, err)
	_, err = svc.ListTasks(ctx, ident("owner-a"), ListTasksRequest{})
	require.NoError(t, err)

	assert.Empty(t, audit.entries)
}

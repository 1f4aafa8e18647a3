package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/shared"
)

// Repository defines persistence for tasks. Every method takes the
// caller identity first and scopes its SQL by owner before any other
// predicate. Absent rows and other tenants' rows surface as the same
// shared.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, identity auth.Identity, draft Task) (*Task, error)
	GetByID(ctx context.Context, identity auth.Identity, id string) (*Task, error)
	List(ctx context.Context, identity auth.Identity, filter ListTasksRequest) ([]Task, int, error)
	Update(ctx context.Context, identity auth.Identity, id string, patch UpdateTaskRequest) (*Task, error)
	ToggleComplete(ctx context.Context, identity auth.Identity, id string) (*Task, error)
	Delete(ctx context.Context, identity auth.Identity, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const taskColumns = `id, owner_id, title, description, status, created_at, updated_at`

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Create inserts a new task. The stored owner comes from the verified
// identity, never from the draft.
func (r *PGRepository) Create(ctx context.Context, identity auth.Identity, draft Task) (*Task, error) {
	now := time.Now().UTC()
	task := draft
	task.ID = uuid.NewString()
	task.OwnerID = identity.SubjectID
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `INSERT INTO tasks (id, owner_id, title, description, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		task.ID, task.OwnerID, task.Title, task.Description, task.Status, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// GetByID fetches one task scoped by id and owner in a single predicate.
func (r *PGRepository) GetByID(ctx context.Context, identity auth.Identity, id string) (*Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND owner_id = $2`, id, identity.SubjectID)
	return scanTask(row)
}

// List returns one page of the owner's tasks plus the total count for
// the same predicate. Rows and count run concurrently.
func (r *PGRepository) List(ctx context.Context, identity auth.Identity, filter ListTasksRequest) ([]Task, int, error) {
	page := shared.NewPage(filter.Limit, filter.Offset)

	// The owner scope is always the first predicate; the status filter
	// only narrows within it.
	where := `WHERE owner_id = $1`
	args := []any{identity.SubjectID}
	if filter.Status != nil {
		where += ` AND status = $2`
		args = append(args, *filter.Status)
	}

	listSQL := fmt.Sprintf(`SELECT %s FROM tasks %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		taskColumns, where, len(args)+1, len(args)+2)
	countSQL := `SELECT COUNT(*) FROM tasks ` + where
	listArgs := append(append([]any(nil), args...), page.Limit, page.Offset)

	var (
		items []Task
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := r.pool.Query(gctx, listSQL, listArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var t Task
			if err := rows.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
				return err
			}
			items = append(items, t)
		}
		return rows.Err()
	})
	g.Go(func() error {
		return r.pool.QueryRow(gctx, countSQL, args...).Scan(&total)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	if items == nil {
		items = []Task{}
	}
	return items, total, nil
}

// Update applies a partial patch in one statement. Nil fields keep the
// stored values; updated_at always moves strictly forward.
func (r *PGRepository) Update(ctx context.Context, identity auth.Identity, id string, patch UpdateTaskRequest) (*Task, error) {
	row := r.pool.QueryRow(ctx, `UPDATE tasks SET
		title = COALESCE($3, title),
		description = COALESCE($4, description),
		status = COALESCE($5, status),
		updated_at = GREATEST(NOW(), updated_at + INTERVAL '1 microsecond')
	WHERE id = $1 AND owner_id = $2
	RETURNING `+taskColumns,
		id, identity.SubjectID, patch.Title, patch.Description, patch.Status)
	return scanTask(row)
}

// ToggleComplete flips completion atomically: Completed goes back to
// Pending, every other status goes to Completed.
func (r *PGRepository) ToggleComplete(ctx context.Context, identity auth.Identity, id string) (*Task, error) {
	row := r.pool.QueryRow(ctx, `UPDATE tasks SET
		status = CASE WHEN status = $3 THEN $4 ELSE $3 END,
		updated_at = GREATEST(NOW(), updated_at + INTERVAL '1 microsecond')
	WHERE id = $1 AND owner_id = $2
	RETURNING `+taskColumns,
		id, identity.SubjectID, StatusCompleted, StatusPending)
	return scanTask(row)
}

// Delete removes the task permanently. The id is never reused: ids are
// random UUIDs minted at creation.
func (r *PGRepository) Delete(ctx context.Context, identity auth.Identity, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, identity.SubjectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)

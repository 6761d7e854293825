package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pverel/imageforge-api/internal/domain"
)

// TaskStatusUpdate carries the optional fields of a status transition.
// Nil/empty fields are left untouched in the store, mirroring the narrow
// persistence contract the task lifecycle depends on.
type TaskStatusUpdate struct {
	Status     domain.TaskStatus
	StartedAt  *time.Time
	FinishedAt *time.Time
	Results    []string
	Error      string
}

// TaskStore defines the interface for task persistence.
type TaskStore interface {
	// SaveTask persists a newly created task.
	SaveTask(ctx context.Context, task *domain.Task) error

	// UpdateTaskStatus applies a status transition to the persisted task.
	// Updating an unknown task is a no-op.
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, update TaskStatusUpdate) error

	// GetTask retrieves a task by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, error)

	// ListTasks returns the most recently created tasks, newest first.
	ListTasks(ctx context.Context, limit int) ([]*domain.Task, error)

	// ListTasksByStatus returns all tasks with the given status, oldest
	// first, so recovery re-enqueues in original submission order.
	ListTasksByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.Task, error)

	// ResetRunningTasks demotes every running task back to queued,
	// clearing started_at, finished_at and error. Returns the number of
	// tasks demoted.
	ResetRunningTasks(ctx context.Context) (int64, error)
}

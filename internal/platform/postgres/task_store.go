package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pverel/imageforge-api/internal/domain"
	"github.com/pverel/imageforge-api/internal/platform/logger"
	"github.com/pverel/imageforge-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface using PostgreSQL.
type PostgresTaskStore struct {
	db store.DBTX
}

// NewPostgresTaskStore creates a new PostgresTaskStore.
func NewPostgresTaskStore(db store.DBTX) *PostgresTaskStore {
	return &PostgresTaskStore{db: db}
}

// SaveTask persists a newly created task.
func (s *PostgresTaskStore) SaveTask(ctx context.Context, task *domain.Task) error {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO tasks (id, status, prompt, n, config_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.Status,
		task.Prompt,
		task.Count,
		nullString(task.ConfigName),
		task.CreatedAt,
	)
	if err != nil {
		log.Error("failed to save task",
			"task_id", task.ID,
			"error", err)
		return fmt.Errorf("failed to save task: %w", MapError(err))
	}

	return nil
}

// UpdateTaskStatus applies a status transition to the persisted task.
// Updating an unknown task is a no-op; the worker that owns the task is the
// only legitimate writer, so a missing row can only mean corrupted state.
func (s *PostgresTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	update store.TaskStatusUpdate,
) error {
	log := logger.FromContext(ctx)

	sets := []string{"status = $1"}
	args := []any{update.Status}

	if update.StartedAt != nil {
		args = append(args, *update.StartedAt)
		sets = append(sets, fmt.Sprintf("started_at = $%d", len(args)))
	}
	if update.FinishedAt != nil {
		args = append(args, *update.FinishedAt)
		sets = append(sets, fmt.Sprintf("finished_at = $%d", len(args)))
	}
	if update.Results != nil {
		encoded, err := json.Marshal(update.Results)
		if err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
		args = append(args, encoded)
		sets = append(sets, fmt.Sprintf("results = $%d", len(args)))
	}
	if update.Error != "" {
		args = append(args, update.Error)
		sets = append(sets, fmt.Sprintf("error = $%d", len(args)))
	}

	args = append(args, taskID)
	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to update task status",
			"task_id", taskID,
			"status", update.Status,
			"error", err)
		return fmt.Errorf("failed to update task status: %w", MapError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		log.Warn("no task found with ID to update status", "task_id", taskID)
	}

	return nil
}

const taskColumns = "id, status, prompt, n, config_name, created_at, started_at, finished_at, results, error"

// GetTask retrieves a task by its ID.
func (s *PostgresTaskStore) GetTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE id = $1"

	row := s.db.QueryRowContext(ctx, query, taskID)
	task, err := scanTask(row)
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", MapError(err))
	}
	return task, nil
}

// ListTasks returns the most recently created tasks, newest first.
func (s *PostgresTaskStore) ListTasks(ctx context.Context, limit int) ([]*domain.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks ORDER BY created_at DESC, id DESC LIMIT $1"
	return s.queryTasks(ctx, query, limit)
}

// ListTasksByStatus returns all tasks with the given status, oldest first.
func (s *PostgresTaskStore) ListTasksByStatus(
	ctx context.Context,
	status domain.TaskStatus,
) ([]*domain.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE status = $1 ORDER BY created_at ASC"
	return s.queryTasks(ctx, query, status)
}

// ResetRunningTasks demotes every running task back to queued.
func (s *PostgresTaskStore) ResetRunningTasks(ctx context.Context) (int64, error) {
	log := logger.FromContext(ctx)

	query := `
		UPDATE tasks
		SET status = $1, started_at = NULL, finished_at = NULL, error = NULL
		WHERE status = $2
	`

	result, err := s.db.ExecContext(ctx, query, domain.TaskStatusQueued, domain.TaskStatusRunning)
	if err != nil {
		log.Error("failed to reset running tasks", "error", err)
		return 0, fmt.Errorf("failed to reset running tasks: %w", MapError(err))
	}

	return result.RowsAffected()
}

func (s *PostgresTaskStore) queryTasks(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	log := logger.FromContext(ctx)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks", "error", err)
		return nil, fmt.Errorf("failed to query tasks: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task       domain.Task
		configName sql.NullString
		startedAt  sql.NullTime
		finishedAt sql.NullTime
		results    []byte
		errMsg     sql.NullString
	)

	err := row.Scan(
		&task.ID,
		&task.Status,
		&task.Prompt,
		&task.Count,
		&configName,
		&task.CreatedAt,
		&startedAt,
		&finishedAt,
		&results,
		&errMsg,
	)
	if err != nil {
		return nil, err
	}

	task.ConfigName = configName.String
	task.Error = errMsg.String
	if startedAt.Valid {
		t := startedAt.Time
		task.StartedAt = &t
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		task.FinishedAt = &t
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &task.Results); err != nil {
			return nil, fmt.Errorf("failed to decode results: %w", err)
		}
	}

	return &task, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pverel/imageforge-api/internal/api/shared"
	"github.com/pverel/imageforge-api/internal/domain"
	"github.com/pverel/imageforge-api/internal/platform/logger"
)

// TaskService is the slice of the task service the handlers depend on.
type TaskService interface {
	Submit(ctx context.Context, task *domain.Task) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	List(ctx context.Context, limit int) ([]*domain.Task, error)
	Reconfigure(workerCount int) int
}

// SettingsResolver resolves a settings snapshot from a config label at task
// creation time.
type SettingsResolver interface {
	Resolve(name string) (domain.Settings, error)
}

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	tasks     TaskService
	resolver  SettingsResolver
	validator *validator.Validate
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(tasks TaskService, resolver SettingsResolver) *TaskHandler {
	return &TaskHandler{
		tasks:     tasks,
		resolver:  resolver,
		validator: validator.New(),
	}
}

// CreateTask handles POST /api/tasks requests
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	// Image-to-image mode produces exactly one result.
	if req.ReferenceImage != "" && req.Count != 1 {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			"count must be 1 when reference_image is set")
		return
	}

	settings, err := h.resolver.Resolve(req.ConfigName)
	if err != nil {
		log.Warn("failed to resolve generation config",
			"config_name", req.ConfigName,
			"error", err)
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := domain.NewTask(req.Prompt, req.Count, settings, req.ConfigName, req.ReferenceImage)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.tasks.Submit(r.Context(), task); err != nil {
		log.Error("failed to submit task", "error", err)
		HandleAPIError(w, r, err, "Failed to submit task")
		return
	}

	// 202 Accepted: processing happens asynchronously.
	shared.RespondWithJSON(w, r, http.StatusAccepted, task.Snapshot())
}

// GetTask handles GET /api/tasks/{id} requests
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.tasks.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task.Snapshot())
}

// ListTasks handles GET /api/tasks requests
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20, 1, 200)

	tasks, err := h.tasks.List(r.Context(), limit)
	if err != nil {
		logger.FromContext(r.Context()).Error("failed to list tasks", "error", err)
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	snapshots := make([]domain.TaskSnapshot, 0, len(tasks))
	for _, t := range tasks {
		snapshots = append(snapshots, t.Snapshot())
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{Tasks: snapshots})
}

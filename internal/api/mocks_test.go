package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pverel/imageforge-api/internal/domain"
	"github.com/pverel/imageforge-api/internal/store"
)

// mockTaskService implements TaskService with overridable functions.
type mockTaskService struct {
	SubmitFn      func(ctx context.Context, task *domain.Task) error
	GetFn         func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	ListFn        func(ctx context.Context, limit int) ([]*domain.Task, error)
	ReconfigureFn func(workerCount int) int

	submitted []*domain.Task
}

func (m *mockTaskService) Submit(ctx context.Context, task *domain.Task) error {
	m.submitted = append(m.submitted, task)
	if m.SubmitFn != nil {
		return m.SubmitFn(ctx, task)
	}
	return nil
}

func (m *mockTaskService) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	return nil, store.ErrTaskNotFound
}

func (m *mockTaskService) List(ctx context.Context, limit int) ([]*domain.Task, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockTaskService) Reconfigure(workerCount int) int {
	if m.ReconfigureFn != nil {
		return m.ReconfigureFn(workerCount)
	}
	return workerCount
}

// mockResolver implements SettingsResolver.
type mockResolver struct {
	ResolveFn func(name string) (domain.Settings, error)
}

func (m *mockResolver) Resolve(name string) (domain.Settings, error) {
	if m.ResolveFn != nil {
		return m.ResolveFn(name)
	}
	return domain.Settings{
		BaseURL:       "https://api.example.com",
		APIKey:        "test-key",
		Model:         "test-model",
		MaxConcurrent: 2,
	}, nil
}

// mockImageStore implements store.ImageStore with overridable functions.
type mockImageStore struct {
	ListImagesFn  func(ctx context.Context, page, pageSize int) ([]*store.Image, int, error)
	GetPromptFn   func(ctx context.Context, id int64) (string, error)
	DeleteImageFn func(ctx context.Context, id int64) (string, error)
}

func (m *mockImageStore) SaveArtifact(ctx context.Context, filename, prompt string) (int64, error) {
	return 0, fmt.Errorf("not implemented")
}

func (m *mockImageStore) ListImages(ctx context.Context, page, pageSize int) ([]*store.Image, int, error) {
	if m.ListImagesFn != nil {
		return m.ListImagesFn(ctx, page, pageSize)
	}
	return nil, 0, nil
}

func (m *mockImageStore) GetImage(ctx context.Context, id int64) (*store.Image, error) {
	return nil, store.ErrImageNotFound
}

func (m *mockImageStore) GetPrompt(ctx context.Context, id int64) (string, error) {
	if m.GetPromptFn != nil {
		return m.GetPromptFn(ctx, id)
	}
	return "", store.ErrImageNotFound
}

func (m *mockImageStore) DeleteImage(ctx context.Context, id int64) (string, error) {
	if m.DeleteImageFn != nil {
		return m.DeleteImageFn(ctx, id)
	}
	return "", store.ErrImageNotFound
}

// mockPaths implements ArtifactPaths.
type mockPaths struct {
	SafePathFn func(filename string) (string, error)
}

func (m *mockPaths) SafePath(filename string) (string, error) {
	if m.SafePathFn != nil {
		return m.SafePathFn(filename)
	}
	return filename, nil
}

// executeRequest runs one request through a chi router and captures the
// response.
func executeRequest(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func newTaskRouter(h *TaskHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/tasks", h.CreateTask)
	r.Get("/api/tasks", h.ListTasks)
	r.Get("/api/tasks/{id}", h.GetTask)
	return r
}

func newConfigRouter(h *ConfigHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/configs", h.ListConfigs)
	r.Post("/api/config/concurrent", h.SetConcurrency)
	return r
}

func newImageRouter(h *ImageHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/images", h.ListImages)
	r.Get("/api/images/{id}/prompt", h.GetImagePrompt)
	r.Delete("/api/images/{id}", h.DeleteImage)
	return r
}

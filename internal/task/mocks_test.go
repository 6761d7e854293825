package task

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/pverel/imageforge-api/internal/domain"
	"github.com/pverel/imageforge-api/internal/store"
)

// mockTaskStore is an in-memory store.TaskStore with per-method overrides.
type mockTaskStore struct {
	mu      sync.Mutex
	tasks   map[uuid.UUID]*domain.Task
	updates map[uuid.UUID][]store.TaskStatusUpdate

	SaveTaskFn func(ctx context.Context, task *domain.Task) error
}

func newMockTaskStore() *mockTaskStore {
	return &mockTaskStore{
		tasks:   make(map[uuid.UUID]*domain.Task),
		updates: make(map[uuid.UUID][]store.TaskStatusUpdate),
	}
}

func (m *mockTaskStore) SaveTask(ctx context.Context, task *domain.Task) error {
	if m.SaveTaskFn != nil {
		return m.SaveTaskFn(ctx, task)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = task.Clone()
	return nil
}

func (m *mockTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	update store.TaskStatusUpdate,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates[taskID] = append(m.updates[taskID], update)
	if t, ok := m.tasks[taskID]; ok {
		t.Status = update.Status
		if update.StartedAt != nil {
			t.StartedAt = update.StartedAt
		}
		if update.FinishedAt != nil {
			t.FinishedAt = update.FinishedAt
		}
		if update.Results != nil {
			t.Results = update.Results
		}
		if update.Error != "" {
			t.Error = update.Error
		}
	}
	return nil
}

func (m *mockTaskStore) GetTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return t.Clone(), nil
}

func (m *mockTaskStore) ListTasks(ctx context.Context, limit int) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tasks := make([]*domain.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, t.Clone())
		if len(tasks) == limit {
			break
		}
	}
	return tasks, nil
}

func (m *mockTaskStore) ListTasksByStatus(
	ctx context.Context,
	status domain.TaskStatus,
) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var tasks []*domain.Task
	for _, t := range m.tasks {
		if t.Status == status {
			tasks = append(tasks, t.Clone())
		}
	}
	return tasks, nil
}

func (m *mockTaskStore) ResetRunningTasks(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, t := range m.tasks {
		if t.Status == domain.TaskStatusRunning {
			t.Status = domain.TaskStatusQueued
			t.StartedAt = nil
			t.FinishedAt = nil
			t.Error = ""
			n++
		}
	}
	return n, nil
}

// statusOf reports the persisted status of a task.
func (m *mockTaskStore) statusOf(id uuid.UUID) domain.TaskStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[id]; ok {
		return t.Status
	}
	return ""
}

// mockImageStore records registered artifacts.
type mockImageStore struct {
	mu        sync.Mutex
	artifacts []string
	nextID    int64

	SaveArtifactFn func(ctx context.Context, filename, prompt string) (int64, error)
}

func newMockImageStore() *mockImageStore {
	return &mockImageStore{}
}

func (m *mockImageStore) SaveArtifact(ctx context.Context, filename, prompt string) (int64, error) {
	if m.SaveArtifactFn != nil {
		return m.SaveArtifactFn(ctx, filename, prompt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.artifacts = append(m.artifacts, filename)
	return m.nextID, nil
}

func (m *mockImageStore) ListImages(ctx context.Context, page, pageSize int) ([]*store.Image, int, error) {
	return nil, 0, nil
}

func (m *mockImageStore) GetImage(ctx context.Context, id int64) (*store.Image, error) {
	return nil, store.ErrImageNotFound
}

func (m *mockImageStore) GetPrompt(ctx context.Context, id int64) (string, error) {
	return "", store.ErrImageNotFound
}

func (m *mockImageStore) DeleteImage(ctx context.Context, id int64) (string, error) {
	return "", store.ErrImageNotFound
}

func (m *mockImageStore) registered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.artifacts...)
}

// mockGenerator delegates to GenerateFn.
type mockGenerator struct {
	GenerateFn func(ctx context.Context, task *domain.Task) ([]string, error)
}

func (m *mockGenerator) Generate(ctx context.Context, task *domain.Task) ([]string, error) {
	return m.GenerateFn(ctx, task)
}

// broadcastEvent is one observed transition.
type broadcastEvent struct {
	TaskID uuid.UUID
	Status domain.TaskStatus
}

// mockBroadcaster records transitions and signals them on a channel.
type mockBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
	ch     chan broadcastEvent
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{ch: make(chan broadcastEvent, 64)}
}

func (m *mockBroadcaster) Broadcast(task *domain.Task) {
	ev := broadcastEvent{TaskID: task.ID, Status: task.Status}
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
	m.ch <- ev
}

// statusSequence returns the broadcast statuses observed for one task.
func (m *mockBroadcaster) statusSequence(id uuid.UUID) []domain.TaskStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	var seq []domain.TaskStatus
	for _, ev := range m.events {
		if ev.TaskID == id {
			seq = append(seq, ev.Status)
		}
	}
	return seq
}

// mockResolver delegates to ResolveFn, defaulting to fixed settings.
type mockResolver struct {
	ResolveFn func(name string) (domain.Settings, error)
}

func (m *mockResolver) Resolve(name string) (domain.Settings, error) {
	if m.ResolveFn != nil {
		return m.ResolveFn(name)
	}
	return testSettings(), nil
}

func testSettings() domain.Settings {
	return domain.Settings{
		BaseURL:       "https://api.example.com",
		APIKey:        "test-key",
		Model:         "test-model",
		MaxConcurrent: 2,
	}
}

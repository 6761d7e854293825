package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/pverel/imageforge-api/internal/domain"
	"github.com/pverel/imageforge-api/internal/generation"
	"github.com/pverel/imageforge-api/internal/store"
	"github.com/pverel/imageforge-api/internal/telemetry"
)

// Broadcaster pushes a task's current state to connected observers.
// Implementations must not block the caller.
type Broadcaster interface {
	Broadcast(task *domain.Task)
}

// SettingsResolver re-resolves a settings snapshot from a stored
// configuration label. Used during recovery, where the snapshot captured at
// creation time did not survive the restart.
type SettingsResolver interface {
	Resolve(name string) (domain.Settings, error)
}

// Bounds on the worker pool size.
const (
	workerCountMin = 1
	workerCountMax = 10
)

// Config holds configuration for the task service.
type Config struct {
	// WorkerCount determines how many concurrent workers process tasks.
	// Clamped to [1,10].
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue.
	QueueSize int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		WorkerCount: 2,
		QueueSize:   256,
	}
}

// Service owns the task registry and the worker pool that drains the queue.
// All task state mutations go through the service's lock; the persistence
// store holds the durable copy.
type Service struct {
	taskStore   store.TaskStore
	imageStore  store.ImageStore
	generator   generation.Generator
	broadcaster Broadcaster
	resolver    SettingsResolver
	logger      *slog.Logger

	mu     sync.RWMutex
	tasks  map[uuid.UUID]*domain.Task
	config Config

	queue      chan uuid.UUID
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewService creates a Service. Start must be called before submitted tasks
// are executed.
func NewService(
	taskStore store.TaskStore,
	imageStore store.ImageStore,
	generator generation.Generator,
	broadcaster Broadcaster,
	resolver SettingsResolver,
	config Config,
	logger *slog.Logger,
) *Service {
	if config.WorkerCount < workerCountMin {
		config.WorkerCount = workerCountMin
	}
	if config.WorkerCount > workerCountMax {
		config.WorkerCount = workerCountMax
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultConfig().QueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		taskStore:   taskStore,
		imageStore:  imageStore,
		generator:   generator,
		broadcaster: broadcaster,
		resolver:    resolver,
		logger:      logger,
		tasks:       make(map[uuid.UUID]*domain.Task),
		config:      config,
		queue:       make(chan uuid.UUID, config.QueueSize),
		ctx:         ctx,
		cancelFunc:  cancel,
	}
}

// Submit persists the task as queued, registers it in memory, and appends
// its id to the FIFO queue. A full queue blocks the caller until a worker
// frees a slot or the caller's context is cancelled.
func (s *Service) Submit(ctx context.Context, task *domain.Task) error {
	if err := s.taskStore.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	s.mu.Lock()
	s.tasks[task.ID] = task
	s.mu.Unlock()

	telemetry.TasksSubmitted.Inc()
	s.broadcaster.Broadcast(task)

	select {
	case s.queue <- task.ID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get returns the task's in-memory state if resident, falling back to the
// persistence store otherwise.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	s.mu.RLock()
	task, ok := s.tasks[id]
	var clone *domain.Task
	if ok {
		clone = task.Clone()
	}
	s.mu.RUnlock()

	if ok {
		return clone, nil
	}
	return s.taskStore.GetTask(ctx, id)
}

// List returns the most recently created tasks, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]*domain.Task, error) {
	return s.taskStore.ListTasks(ctx, limit)
}

// Reconfigure changes the worker count for subsequently started pools and
// returns the clamped value. A running pool keeps its current size until
// restart.
func (s *Service) Reconfigure(workerCount int) int {
	if workerCount < workerCountMin {
		workerCount = workerCountMin
	}
	if workerCount > workerCountMax {
		workerCount = workerCountMax
	}

	s.mu.Lock()
	s.config.WorkerCount = workerCount
	s.mu.Unlock()

	s.logger.Info("worker count reconfigured", "worker_count", workerCount)
	return workerCount
}

// WorkerCount reports the configured worker count.
func (s *Service) WorkerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.WorkerCount
}

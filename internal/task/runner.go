package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pverel/imageforge-api/internal/domain"
	"github.com/pverel/imageforge-api/internal/store"
	"github.com/pverel/imageforge-api/internal/telemetry"
)

// Start runs startup recovery and then launches the worker pool. It must be
// called exactly once.
func (s *Service) Start() error {
	if err := s.recover(s.ctx); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	workerCount := s.WorkerCount()
	for i := 0; i < workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.logger.Info("worker pool started", "worker_count", workerCount)
	return nil
}

// Stop signals all workers to stop, cancels in-flight executions, and waits
// for every worker to acknowledge termination. A task interrupted mid-flight
// keeps its last persisted state and is demoted by recovery on next start.
func (s *Service) Stop() {
	s.cancelFunc()
	s.wg.Wait()
	s.logger.Info("worker pool stopped")
}

// worker drains the queue until the service context is cancelled.
func (s *Service) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debug("stopping worker", "worker_id", id)
			return

		case taskID := <-s.queue:
			s.process(taskID, id)
		}
	}
}

// process executes the full lifecycle of one task. Every failure from the
// generation path is contained here and recorded on the task; nothing
// propagates outward or stops the pool.
func (s *Service) process(taskID uuid.UUID, workerID int) {
	logger := s.logger.With("task_id", taskID, "worker_id", workerID)

	s.mu.Lock()
	task, ok := s.tasks[taskID]
	if !ok {
		s.mu.Unlock()
		// Only possible under corrupted state; the id was enqueued without a
		// registry entry.
		logger.Warn("dequeued unknown task id, discarding")
		return
	}
	if err := task.MarkRunning(time.Now().UTC()); err != nil {
		s.mu.Unlock()
		logger.Error("illegal transition to running", "error", err)
		return
	}
	startedAt := *task.StartedAt
	s.mu.Unlock()

	telemetry.TasksRunning.Inc()
	defer telemetry.TasksRunning.Dec()

	logger.Info("processing task")

	if err := s.taskStore.UpdateTaskStatus(s.ctx, taskID, store.TaskStatusUpdate{
		Status:    domain.TaskStatusRunning,
		StartedAt: &startedAt,
	}); err != nil {
		logger.Error("failed to persist running status", "error", err)
	}
	s.broadcaster.Broadcast(task)

	results, genErr := s.generator.Generate(s.ctx, task)

	if s.ctx.Err() != nil {
		// Shutdown cancelled the execution. Not a task failure; the record
		// stays running and is demoted to queued by recovery on next start.
		logger.Info("task execution cancelled")
		return
	}

	if genErr == nil {
		genErr = s.registerArtifacts(task, results)
	}

	finishedAt := time.Now().UTC()

	if genErr != nil {
		logger.Error("task execution failed", "error", genErr)

		s.mu.Lock()
		err := task.MarkFailed(finishedAt, genErr.Error())
		s.mu.Unlock()
		if err != nil {
			logger.Error("illegal transition to failed", "error", err)
			return
		}

		if err := s.taskStore.UpdateTaskStatus(s.ctx, taskID, store.TaskStatusUpdate{
			Status:     domain.TaskStatusFailed,
			FinishedAt: &finishedAt,
			Error:      genErr.Error(),
		}); err != nil {
			logger.Error("failed to persist failed status", "error", err)
		}

		telemetry.TasksProcessed.WithLabelValues(string(domain.TaskStatusFailed)).Inc()
	} else {
		logger.Info("task completed", "result_count", len(results))

		s.mu.Lock()
		err := task.MarkSucceeded(finishedAt, results)
		s.mu.Unlock()
		if err != nil {
			logger.Error("illegal transition to succeeded", "error", err)
			return
		}

		if err := s.taskStore.UpdateTaskStatus(s.ctx, taskID, store.TaskStatusUpdate{
			Status:     domain.TaskStatusSucceeded,
			FinishedAt: &finishedAt,
			Results:    results,
		}); err != nil {
			logger.Error("failed to persist succeeded status", "error", err)
		}

		telemetry.TasksProcessed.WithLabelValues(string(domain.TaskStatusSucceeded)).Inc()
	}

	telemetry.TaskDurationSeconds.Observe(finishedAt.Sub(startedAt).Seconds())
	s.broadcaster.Broadcast(task)
}

// registerArtifacts records each saved file in the image registry. A
// duplicate filename is logged and skipped; any other registry failure
// fails the task.
func (s *Service) registerArtifacts(task *domain.Task, filenames []string) error {
	for _, filename := range filenames {
		if _, err := s.imageStore.SaveArtifact(s.ctx, filename, task.Prompt); err != nil {
			if errors.Is(err, store.ErrFilenameExists) {
				s.logger.Warn("artifact already registered",
					"task_id", task.ID,
					"filename", filename)
				continue
			}
			return fmt.Errorf("failed to register artifact %s: %w", filename, err)
		}
	}
	return nil
}

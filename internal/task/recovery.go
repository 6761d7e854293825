package task

import (
	"context"
	"fmt"

	"github.com/pverel/imageforge-api/internal/domain"
)

// recover reconciles persisted task state with the fact that no in-memory
// work survived the restart. It runs once, before the worker pool starts.
//
// Any task the previous process was executing is presumed lost; the
// external call is not resumable and must restart from scratch. Demoted and
// still-queued tasks are re-enqueued with freshly resolved settings. A task
// whose configuration can no longer be resolved is logged and skipped: it
// stays queued rather than being silently mutated to failed, so an operator
// can fix the configuration and restart.
func (s *Service) recover(ctx context.Context) error {
	reset, err := s.taskStore.ResetRunningTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset running tasks: %w", err)
	}

	queued, err := s.taskStore.ListTasksByStatus(ctx, domain.TaskStatusQueued)
	if err != nil {
		return fmt.Errorf("failed to list queued tasks: %w", err)
	}

	s.logger.Info("recovering unfinished tasks",
		"reset_count", reset,
		"queued_count", len(queued))

	var requeued, skipped int
	for _, task := range queued {
		s.mu.RLock()
		_, resident := s.tasks[task.ID]
		s.mu.RUnlock()
		if resident {
			continue
		}

		settings, err := s.resolver.Resolve(task.ConfigName)
		if err != nil {
			skipped++
			s.logger.Warn("skipping task with unresolvable configuration",
				"task_id", task.ID,
				"config_name", task.ConfigName,
				"error", err)
			continue
		}
		task.Settings = settings

		s.mu.Lock()
		s.tasks[task.ID] = task
		s.mu.Unlock()

		select {
		case s.queue <- task.ID:
			requeued++
		default:
			s.logger.Error("failed to requeue task, queue is full", "task_id", task.ID)
		}
	}

	if requeued > 0 || skipped > 0 {
		s.logger.Info("recovery complete", "requeued", requeued, "skipped", skipped)
	}

	return nil
}

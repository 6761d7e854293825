package generation

import (
	"context"

	"github.com/pverel/imageforge-api/internal/domain"
)

// Generator defines the interface for producing images from a task.
// Implementations call the external generation service with the task's
// settings snapshot, materialize the resulting images into the artifact
// store, and return the saved filenames.
type Generator interface {
	// Generate executes the task's generation request and returns the
	// filenames of the saved artifacts, in order. A task carrying a
	// reference image is executed in image-to-image mode; otherwise the
	// batch text-to-image mode is used. Errors follow the taxonomy in
	// errors.go; any retry or format fallback behavior is internal to the
	// implementation.
	Generate(ctx context.Context, task *domain.Task) ([]string, error)
}

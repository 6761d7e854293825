// Package generation defines the boundary between the task-processing core
// and external image generation services. It abstracts the details of the
// provider API, allowing workers to execute generation requests without
// coupling to a specific external service.
package generation

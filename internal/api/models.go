package api

import (
	"github.com/pverel/imageforge-api/internal/config"
	"github.com/pverel/imageforge-api/internal/domain"
	"github.com/pverel/imageforge-api/internal/store"
)

// Common request/response structures

// CreateTaskRequest defines the payload for the task creation endpoint.
// A reference image switches the task to image-to-image mode, which
// produces exactly one result; count must be 1 in that case (checked in the
// handler, not expressible as a field tag).
type CreateTaskRequest struct {
	Prompt         string `json:"prompt"          validate:"required,min=1"`
	Count          int    `json:"count"           validate:"required,min=1,max=10"`
	ConfigName     string `json:"config_name"     validate:"omitempty,max=128"`
	ReferenceImage string `json:"reference_image" validate:"omitempty"`
}

// TaskListResponse wraps the task listing endpoint's payload.
type TaskListResponse struct {
	Tasks []domain.TaskSnapshot `json:"tasks"`
}

// ConcurrencyRequest defines the payload for the worker-count endpoint.
type ConcurrencyRequest struct {
	MaxConcurrent int `json:"max_concurrent" validate:"required,min=1,max=10"`
}

// ConcurrencyResponse reports the applied worker count.
type ConcurrencyResponse struct {
	MaxConcurrent int `json:"max_concurrent"`
}

// ConfigsResponse lists the available generation configs without
// credentials.
type ConfigsResponse struct {
	Configs []config.Summary `json:"configs"`
	Default string           `json:"default"`
}

// ImageListResponse wraps one page of the image registry.
type ImageListResponse struct {
	Images   []*store.Image `json:"images"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// PromptResponse carries the prompt an image was generated from.
type PromptResponse struct {
	Prompt string `json:"prompt"`
}

package store

import (
	"context"
	"time"
)

// Image is one generated artifact registered in the store.
type Image struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"created_at"`
}

// ImageStore defines the interface for the generated-image registry.
type ImageStore interface {
	// SaveArtifact registers a saved artifact and returns its record ID.
	// Returns ErrDuplicate when the filename is already registered.
	SaveArtifact(ctx context.Context, filename, prompt string) (int64, error)

	// ListImages returns one page of images, newest first, along with the
	// total image count.
	ListImages(ctx context.Context, page, pageSize int) ([]*Image, int, error)

	// GetImage retrieves an image record by ID.
	// Returns ErrImageNotFound if the record does not exist.
	GetImage(ctx context.Context, id int64) (*Image, error)

	// GetPrompt returns the prompt an image was generated from.
	// Returns ErrImageNotFound if the record does not exist.
	GetPrompt(ctx context.Context, id int64) (string, error)

	// DeleteImage removes an image record and returns its filename so the
	// caller can remove the file.
	// Returns ErrImageNotFound if the record does not exist.
	DeleteImage(ctx context.Context, id int64) (string, error)
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pverel/imageforge-api/internal/platform/logger"
	"github.com/pverel/imageforge-api/internal/store"
)

// PostgresImageStore implements the store.ImageStore interface using PostgreSQL.
type PostgresImageStore struct {
	db store.DBTX
}

// NewPostgresImageStore creates a new PostgresImageStore.
func NewPostgresImageStore(db store.DBTX) *PostgresImageStore {
	return &PostgresImageStore{db: db}
}

// SaveArtifact registers a saved artifact and returns its record ID.
func (s *PostgresImageStore) SaveArtifact(ctx context.Context, filename, prompt string) (int64, error) {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO images (filename, prompt, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := s.db.QueryRowContext(ctx, query, filename, prompt, time.Now().UTC()).Scan(&id)
	if err != nil {
		if IsUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", store.ErrFilenameExists, filename)
		}
		log.Error("failed to save artifact",
			"filename", filename,
			"error", err)
		return 0, fmt.Errorf("failed to save artifact: %w", MapError(err))
	}

	return id, nil
}

// ListImages returns one page of images, newest first, with the total count.
func (s *PostgresImageStore) ListImages(ctx context.Context, page, pageSize int) ([]*store.Image, int, error) {
	log := logger.FromContext(ctx)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM images").Scan(&total); err != nil {
		log.Error("failed to count images", "error", err)
		return nil, 0, fmt.Errorf("failed to count images: %w", MapError(err))
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT id, filename, prompt, created_at
		FROM images
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		log.Error("failed to list images", "error", err)
		return nil, 0, fmt.Errorf("failed to list images: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var images []*store.Image
	for rows.Next() {
		var img store.Image
		if err := rows.Scan(&img.ID, &img.Filename, &img.Prompt, &img.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan image row: %w", err)
		}
		images = append(images, &img)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating image rows: %w", err)
	}

	return images, total, nil
}

// GetImage retrieves an image record by ID.
func (s *PostgresImageStore) GetImage(ctx context.Context, id int64) (*store.Image, error) {
	query := "SELECT id, filename, prompt, created_at FROM images WHERE id = $1"

	var img store.Image
	err := s.db.QueryRowContext(ctx, query, id).Scan(&img.ID, &img.Filename, &img.Prompt, &img.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to get image: %w", MapError(err))
	}

	return &img, nil
}

// GetPrompt returns the prompt an image was generated from.
func (s *PostgresImageStore) GetPrompt(ctx context.Context, id int64) (string, error) {
	var prompt string
	err := s.db.QueryRowContext(ctx, "SELECT prompt FROM images WHERE id = $1", id).Scan(&prompt)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", store.ErrImageNotFound
		}
		return "", fmt.Errorf("failed to get prompt: %w", MapError(err))
	}
	return prompt, nil
}

// DeleteImage removes an image record and returns its filename.
func (s *PostgresImageStore) DeleteImage(ctx context.Context, id int64) (string, error) {
	log := logger.FromContext(ctx)

	var filename string
	err := s.db.QueryRowContext(ctx,
		"DELETE FROM images WHERE id = $1 RETURNING filename", id,
	).Scan(&filename)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", store.ErrImageNotFound
		}
		log.Error("failed to delete image", "image_id", id, "error", err)
		return "", fmt.Errorf("failed to delete image: %w", MapError(err))
	}

	return filename, nil
}

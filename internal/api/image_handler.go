package api

import (
	"net/http"
	"os"

	"github.com/pverel/imageforge-api/internal/api/shared"
	"github.com/pverel/imageforge-api/internal/platform/logger"
	"github.com/pverel/imageforge-api/internal/store"
)

// ArtifactPaths resolves registry filenames to validated paths under the
// output root.
type ArtifactPaths interface {
	SafePath(filename string) (string, error)
}

// ImageHandler handles image-registry HTTP requests.
type ImageHandler struct {
	images store.ImageStore
	paths  ArtifactPaths
}

// NewImageHandler creates a new ImageHandler
func NewImageHandler(images store.ImageStore, paths ArtifactPaths) *ImageHandler {
	return &ImageHandler{images: images, paths: paths}
}

// ListImages handles GET /api/images requests with page/page_size query
// parameters, newest first.
func (h *ImageHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1, 1, 1<<30)
	pageSize := queryInt(r, "page_size", 20, 1, 100)

	images, total, err := h.images.ListImages(r.Context(), page, pageSize)
	if err != nil {
		logger.FromContext(r.Context()).Error("failed to list images", "error", err)
		HandleAPIError(w, r, err, "Failed to list images")
		return
	}

	if images == nil {
		images = []*store.Image{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ImageListResponse{
		Images:   images,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// GetImagePrompt handles GET /api/images/{id}/prompt requests
func (h *ImageHandler) GetImagePrompt(w http.ResponseWriter, r *http.Request) {
	id, err := getPathInt64(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	prompt, err := h.images.GetPrompt(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, PromptResponse{Prompt: prompt})
}

// DeleteImage handles DELETE /api/images/{id} requests. The registry record
// is removed first; a missing file on disk is not an error.
func (h *ImageHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	id, err := getPathInt64(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	filename, err := h.images.DeleteImage(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	path, err := h.paths.SafePath(filename)
	if err != nil {
		log.Error("refusing to delete artifact outside output root",
			"image_id", id,
			"filename", filename,
			"error", err)
	} else if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Error("failed to delete artifact file",
			"image_id", id,
			"filename", filename,
			"error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

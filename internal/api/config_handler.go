package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/pverel/imageforge-api/internal/api/shared"
	"github.com/pverel/imageforge-api/internal/config"
	"github.com/pverel/imageforge-api/internal/platform/logger"
)

// ConfigHandler exposes read-only views of the generation configs and the
// runtime worker-count control.
type ConfigHandler struct {
	generation config.GenerationConfig
	tasks      TaskService
	validator  *validator.Validate
}

// NewConfigHandler creates a new ConfigHandler
func NewConfigHandler(generation config.GenerationConfig, tasks TaskService) *ConfigHandler {
	return &ConfigHandler{
		generation: generation,
		tasks:      tasks,
		validator:  validator.New(),
	}
}

// ListConfigs handles GET /api/configs requests. Credentials are never
// included in the response.
func (h *ConfigHandler) ListConfigs(w http.ResponseWriter, r *http.Request) {
	summaries, defaultName := h.generation.Summaries()
	shared.RespondWithJSON(w, r, http.StatusOK, ConfigsResponse{
		Configs: summaries,
		Default: defaultName,
	})
}

// SetConcurrency handles POST /api/config/concurrent requests. The new
// worker count applies to subsequently started pools; a running pool keeps
// its size until restart.
func (h *ConfigHandler) SetConcurrency(w http.ResponseWriter, r *http.Request) {
	var req ConcurrencyRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	applied := h.tasks.Reconfigure(req.MaxConcurrent)

	logger.FromContext(r.Context()).Info("concurrency updated",
		"requested", req.MaxConcurrent,
		"applied", applied)

	shared.RespondWithJSON(w, r, http.StatusOK, ConcurrencyResponse{MaxConcurrent: applied})
}

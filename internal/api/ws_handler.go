package api

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/pverel/imageforge-api/internal/domain"
	"github.com/pverel/imageforge-api/internal/platform/logger"
	"github.com/pverel/imageforge-api/internal/ws"
)

// initialTaskLimit bounds how many tasks a freshly connected observer
// receives in its initial snapshot.
const initialTaskLimit = 100

// ObserverRegistry is the slice of the broadcast hub the handler depends on.
type ObserverRegistry interface {
	Register(conn *websocket.Conn, tasks []*domain.Task) error
}

// WSHandler upgrades observer connections and hands them to the hub.
type WSHandler struct {
	hub      ObserverRegistry
	tasks    TaskService
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(hub ObserverRegistry, tasks TaskService) *WSHandler {
	return &WSHandler{
		hub:   hub,
		tasks: tasks,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Observers are same-origin browser clients or tools; the
			// endpoint carries no credentials.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Subscribe handles GET /ws/tasks requests. The connected observer receives
// the current task list immediately and task updates from then on.
func (h *WSHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	tasks, err := h.tasks.List(r.Context(), initialTaskLimit)
	if err != nil {
		log.Error("failed to load initial task list", "error", err)
		HandleAPIError(w, r, err, "Failed to load tasks")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		log.Debug("websocket upgrade failed", "error", err)
		return
	}

	if err := h.hub.Register(conn, tasks); err != nil {
		log.Warn("failed to register observer", "error", err)
	}
}

// Interface satisfaction check; the hub is the only production registry.
var _ ObserverRegistry = (*ws.Hub)(nil)

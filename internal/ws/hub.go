// Package ws fans task state changes out to connected WebSocket observers.
// Delivery is best-effort: a failed send evicts the observer, and nothing
// here ever blocks or fails the worker that triggered the broadcast. A
// single dispatcher drains the event queue, so observers see updates in the
// order they were broadcast.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/pverel/imageforge-api/internal/domain"
	"github.com/pverel/imageforge-api/internal/telemetry"
)

// Message type discriminators on the wire.
const (
	MessageInitialTasks = "initial_tasks"
	MessageTaskUpdate   = "task_update"
)

// eventBuffer bounds the queue of pending deliveries. A full queue drops
// the newest event rather than blocking the worker that broadcast it.
const eventBuffer = 256

// Message is the envelope pushed to observers. Exactly one of Task or Tasks
// is populated depending on Type.
type Message struct {
	Type  string                `json:"type"`
	Task  *domain.TaskSnapshot  `json:"task,omitempty"`
	Tasks []domain.TaskSnapshot `json:"tasks,omitempty"`
}

// observer wraps one connection with a write lock so concurrent broadcast
// events cannot interleave frames on the same socket.
type observer struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (o *observer) send(payload []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub tracks connected observers and delivers task updates to all of them.
type Hub struct {
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	events chan []byte

	mu        sync.Mutex
	observers map[*observer]struct{}
}

// NewHub creates a Hub ready to accept observers and starts its dispatcher.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		events:    make(chan []byte, eventBuffer),
		observers: make(map[*observer]struct{}),
	}
	h.wg.Add(1)
	go h.dispatch()
	return h
}

// Register adds a connection to the observer set and sends it the current
// task list. The hub owns the connection from this point on: it runs the
// read loop that detects disconnects and closes the socket when the hub
// shuts down.
func (h *Hub) Register(conn *websocket.Conn, tasks []*domain.Task) error {
	snapshots := make([]domain.TaskSnapshot, 0, len(tasks))
	for _, t := range tasks {
		snapshots = append(snapshots, t.Snapshot())
	}

	payload, err := json.Marshal(Message{Type: MessageInitialTasks, Tasks: snapshots})
	if err != nil {
		return err
	}

	o := &observer{conn: conn}
	if err := o.send(payload); err != nil {
		_ = conn.Close()
		return err
	}

	h.mu.Lock()
	h.observers[o] = struct{}{}
	h.mu.Unlock()
	telemetry.ObserverConnections.Inc()

	h.logger.Debug("observer connected", "remote_addr", conn.RemoteAddr())

	h.wg.Add(1)
	go h.readLoop(o)

	return nil
}

// readLoop drains inbound frames until the peer goes away. Observers are
// write-only from our side, so every read result except an error is
// discarded.
func (h *Hub) readLoop(o *observer) {
	defer h.wg.Done()
	for {
		if _, _, err := o.conn.ReadMessage(); err != nil {
			h.remove(o)
			return
		}
	}
}

// Broadcast enqueues the task's current state for delivery to all observers
// and returns immediately. Events are delivered in enqueue order; pending
// deliveries are dropped when the hub closes.
func (h *Hub) Broadcast(task *domain.Task) {
	snapshot := task.Snapshot()
	payload, err := json.Marshal(Message{Type: MessageTaskUpdate, Task: &snapshot})
	if err != nil {
		h.logger.Error("failed to encode task update", "task_id", task.ID, "error", err)
		return
	}

	select {
	case h.events <- payload:
	default:
		h.logger.Warn("dropping task update, event queue is full", "task_id", task.ID)
	}
}

// dispatch drains the event queue one event at a time. Serializing delivery
// here keeps the per-task status order intact across observers.
func (h *Hub) dispatch() {
	defer h.wg.Done()
	for {
		select {
		case <-h.ctx.Done():
			return
		case payload := <-h.events:
			h.deliver(payload)
		}
	}
}

// deliver sends one encoded event to every observer in the set. Failed
// observers are evicted; delivery to the rest continues.
func (h *Hub) deliver(payload []byte) {
	if h.ctx.Err() != nil {
		return
	}

	h.mu.Lock()
	targets := make([]*observer, 0, len(h.observers))
	for o := range h.observers {
		targets = append(targets, o)
	}
	h.mu.Unlock()

	for _, o := range targets {
		if h.ctx.Err() != nil {
			return
		}
		if err := o.send(payload); err != nil {
			h.logger.Debug("evicting observer after failed send", "error", err)
			h.remove(o)
		}
	}
}

// remove evicts an observer and closes its connection. Safe to call more
// than once for the same observer.
func (h *Hub) remove(o *observer) {
	h.mu.Lock()
	_, present := h.observers[o]
	delete(h.observers, o)
	h.mu.Unlock()

	if present {
		telemetry.ObserverConnections.Dec()
		_ = o.conn.Close()
	}
}

// ObserverCount reports the number of currently connected observers.
func (h *Hub) ObserverCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers)
}

// Close cancels pending deliveries, disconnects all observers, and waits
// for the hub's goroutines to finish.
func (h *Hub) Close() {
	h.cancel()

	h.mu.Lock()
	targets := make([]*observer, 0, len(h.observers))
	for o := range h.observers {
		targets = append(targets, o)
	}
	h.mu.Unlock()

	for _, o := range targets {
		h.remove(o)
	}

	h.wg.Wait()
}

package ws

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/akoreshkov/docfields/internal/core/domain"
)

// Hub delivers task status events to at most one websocket subscriber
// per task. Delivery is best effort: with no subscriber the event is
// dropped, and a subscriber whose send fails is deregistered so later
// events are dropped instead of retried.
type Hub struct {
	logger       *slog.Logger
	writeTimeout time.Duration

	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:       logger,
		writeTimeout: 5 * time.Second,
		conns:        make(map[string]*websocket.Conn),
	}
}

// Register replaces any previous subscriber for the task; the replaced
// connection is closed.
func (h *Hub) Register(taskID string, conn *websocket.Conn) {
	h.mu.Lock()
	previous := h.conns[taskID]
	h.conns[taskID] = conn
	h.mu.Unlock()

	if previous != nil && previous != conn {
		_ = previous.Close()
	}
}

// Unregister removes the subscriber only if it is still the current
// one, so a reconnect racing a slow disconnect is not torn down.
func (h *Hub) Unregister(taskID string, conn *websocket.Conn) {
	h.mu.Lock()
	if h.conns[taskID] == conn {
		delete(h.conns, taskID)
	}
	h.mu.Unlock()
}

func (h *Hub) Publish(taskID string, event domain.StatusEvent) {
	h.mu.Lock()
	conn := h.conns[taskID]
	h.mu.Unlock()

	if conn == nil {
		return
	}

	if err := conn.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
		h.drop(taskID, conn, err)
		return
	}
	if err := websocket.JSON.Send(conn, event); err != nil {
		h.drop(taskID, conn, err)
	}
}

func (h *Hub) drop(taskID string, conn *websocket.Conn, err error) {
	h.logger.Warn("status_subscriber_dropped", "task_id", taskID, "error", err)
	h.Unregister(taskID, conn)
	_ = conn.Close()
}

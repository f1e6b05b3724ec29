package httpadapter

import (
	"net/http"
	"strings"

	"golang.org/x/net/websocket"

	wshub "github.com/akoreshkov/docfields/internal/infrastructure/notifier/ws"
)

// StatusHandler upgrades /ws/tasks/{task_id} connections and parks them
// on the hub until the client disconnects. The worker process serves
// this endpoint so live events never cross a process boundary.
func StatusHandler(hub *wshub.Hub) http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		taskID := strings.TrimPrefix(conn.Request().URL.Path, "/ws/tasks/")
		if taskID == "" {
			_ = conn.Close()
			return
		}

		hub.Register(taskID, conn)
		defer hub.Unregister(taskID, conn)

		// Drain client frames so we notice the disconnect.
		var discard string
		for {
			if err := websocket.Message.Receive(conn, &discard); err != nil {
				return
			}
		}
	})
}

package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"studyhive/internal/app/live"
	"studyhive/internal/pkg/logx"
)

// HandleWebSocket upgrades an authenticated request and attaches the
// connection to the live hub until either side closes it.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := CurrentUser(r).ID

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket", "user_id", userID)
			return
		}

		client := live.NewClient(deps.Hub, conn, userID)
		if !deps.Hub.Register(client) {
			logx.Warn("WebSocket rejected: hub is shutting down", "user_id", userID)
			_ = conn.Close()
			return
		}

		go client.WritePump()

		logx.Info("WebSocket connection established", "user_id", userID)

		client.ReadPump()
	}
}

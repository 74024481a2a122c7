package server

import (
	"net/http"

	"auction-engine/internal/broadcast"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect from the marketplace frontend origin; origin
	// enforcement happens at the gateway.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SubscribeHandler upgrades the connection and registers the client with the
// hub. Without an :auction_id parameter the client follows the global topic,
// with one it follows that auction's topic.
func SubscribeHandler(hub *broadcast.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			utils.Warn("websocket upgrade failed", map[string]any{"error": err.Error()})
			return
		}

		client := broadcast.NewClient(hub, conn, c.Param("auction_id"))
		hub.Register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}

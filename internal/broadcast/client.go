package broadcast

import (
	"time"

	"auction-engine/utils"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Subscribers only listen, so
	// anything beyond a pong frame is unexpected.
	maxMessageSize = 512
)

// Client is a middleman between one websocket connection and the hub. A
// client with an empty auctionID follows the global topic; otherwise it
// follows that auction's topic.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	auctionID string
}

// NewClient wraps an upgraded websocket connection. The caller must start
// ReadPump and WritePump and register the client with the hub.
func NewClient(hub *Hub, conn *websocket.Conn, auctionID string) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 64),
		auctionID: auctionID,
	}
}

// ReadPump drains the connection until the peer goes away. Subscribers send
// nothing meaningful; the pump exists to process control frames and detect
// disconnects.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				utils.Warn("broadcast: unexpected close", map[string]any{"error": err.Error()})
			}
			break
		}
	}
}

// WritePump pumps events from the hub to the websocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package gateway

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	maxReadBytes = 512
)

// Client is one WebSocket peer. The feed is server to client only; inbound
// frames are read for liveness and JSON pings.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			// Coalesce queued envelopes into one frame, newline separated.
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(msg)
			n := len(c.send)
			for i := 0; i < n; i++ {
				next, ok := <-c.send
				if !ok {
					break
				}
				w.Write([]byte{'\n'})
				w.Write(next)
			}
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

func (c *Client) readPump() {
	defer func() {
		c.hub.RemoveClient(c)
		c.conn.Close()
		slog.Info("feed client disconnected", "component", "gateway")
	}()

	c.conn.SetReadLimit(maxReadBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var ping struct {
			Ping int64 `json:"ping"`
		}
		if json.Unmarshal(msg, &ping) != nil || ping.Ping <= 0 {
			continue
		}
		pong, _ := json.Marshal(map[string]any{
			"type":      "pong",
			"ping":      ping.Ping,
			"server_ts": time.Now().UnixMilli(),
		})
		// send is only closed by RemoveClient, which runs after this loop.
		select {
		case c.send <- pong:
		default:
		}
	}
}

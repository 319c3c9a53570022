// Package gateway streams relay events to dashboards over WebSocket.
package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"signal-relay/internal/metrics"
	"signal-relay/internal/relay"
)

const sendBuffer = 64

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// Hub fans feed envelopes out to connected clients and keeps a replay
// buffer for late joiners.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	seq     int64
	replay  *ReplayBuffer
	metrics *metrics.Metrics
}

// NewHub creates a hub replaying the last replaySize events. m may be nil.
func NewHub(replaySize int, m *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		replay:  NewReplayBuffer(replaySize),
		metrics: m,
	}
}

// Publish implements relay.EventSink for a single process.
func (h *Hub) Publish(_ context.Context, ev relay.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("feed event marshal failed", "component", "gateway", "error", err)
		return
	}
	h.Broadcast(data)
}

// Broadcast wraps data (a JSON value) in a sequenced envelope, stores it
// for replay and queues it for every client. Slow clients lose the
// envelope instead of blocking the caller.
func (h *Hub) Broadcast(data []byte) int64 {
	if !json.Valid(data) {
		slog.Warn("dropping invalid feed payload", "component", "gateway", "bytes", len(data))
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	env := buildEnvelope(h.seq, data)
	h.replay.Push(h.seq, env)

	for c := range h.clients {
		select {
		case c.send <- env:
		default:
			if h.metrics != nil {
				h.metrics.FeedDrops.Inc()
			}
		}
	}
	return h.seq
}

// buildEnvelope produces {"type":"event","seq":N,"data":...} without a
// second marshal of data.
func buildEnvelope(seq int64, data []byte) []byte {
	buf := make([]byte, 0, len(data)+48)
	buf = append(buf, `{"type":"event","seq":`...)
	buf = strconv.AppendInt(buf, seq, 10)
	buf = append(buf, `,"data":`...)
	buf = append(buf, data...)
	buf = append(buf, '}')
	return buf
}

// ServeWS upgrades the request and registers a client. The optional
// "since" query parameter replays only envelopes after that seq.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "component", "gateway", "error", err)
		return
	}
	since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)

	client := &Client{
		conn: conn,
		send: make(chan []byte, sendBuffer+h.replay.Cap()),
		hub:  h,
	}
	conn.EnableWriteCompression(true)

	// Backlog and registration happen under one lock so no envelope is
	// missed or sent twice.
	h.mu.Lock()
	for _, env := range h.replay.Since(since) {
		client.send <- env
	}
	h.clients[client] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.FeedClients.Set(float64(count))
	}
	slog.Info("feed client connected", "component", "gateway", "clients", count, "since", since)

	go client.writePump()
	go client.readPump()
}

// RemoveClient unregisters c and closes its send queue.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	count := len(h.clients)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.FeedClients.Set(float64(count))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Seq returns the last assigned sequence number.
func (h *Hub) Seq() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.seq
}

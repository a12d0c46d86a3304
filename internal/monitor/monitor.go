// Package monitor broadcasts replay/pipeline statistics to live dashboard
// clients over WebSocket. A supplemental feature (spec.md's distillation
// has no dashboard; SPEC_FULL.md §3/§5 adds one to exercise the corpus's
// gorilla/websocket stack).
//
// Grounded on pkg/websocket/server.go's client-hub shape (register/
// unregister/broadcast channels draining on one goroutine, per-client
// read/write pumps, ping/pong keepalive); simplified from order-book
// channel subscriptions to a single periodic Snapshot broadcast, since
// this dashboard has exactly one data stream.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/BryWillow/beacon/internal/telemetry"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingPeriod   = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Snapshot is one broadcast frame, spec.md §4.5/§4.7's ReplayState counters
// plus the current send rate.
type Snapshot struct {
	Timestamp       int64   `json:"timestamp"`
	MessagesSent    uint64  `json:"messagesSent"`
	MessagesDropped uint64  `json:"messagesDropped"`
	MessagesQueued  uint64  `json:"messagesQueued"`
	CurrentRate     float64 `json:"currentRate"`
}

// Hub fans Snapshot values out to every connected dashboard client.
type Hub struct {
	log telemetry.Logger

	clients   map[*client]bool
	clientsMu sync.RWMutex

	register   chan *client
	unregister chan *client
	broadcast  chan Snapshot

	messagesOut atomic.Uint64
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub builds an idle Hub. Call Run to start the broadcast goroutine and
// Serve to accept connections.
func NewHub() *Hub {
	return &Hub{
		log:        telemetry.New("monitor"),
		clients:    make(map[*client]bool),
		register:   make(chan *client, 16),
		unregister: make(chan *client, 16),
		broadcast:  make(chan Snapshot, 64),
	}
}

// Publish enqueues a snapshot for broadcast. Non-blocking: a slow or
// overflowing broadcast channel drops the snapshot rather than stalling
// the caller, since the caller is typically a hot pipeline/replay loop.
func (h *Hub) Publish(s Snapshot) {
	select {
	case h.broadcast <- s:
	default:
		h.log.Debug("dashboard broadcast channel full, snapshot dropped")
	}
}

// Run drains register/unregister/broadcast until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.clientsMu.Lock()
			for c := range h.clients {
				close(c.send)
			}
			h.clientsMu.Unlock()
			return

		case c := <-h.register:
			h.clientsMu.Lock()
			h.clients[c] = true
			h.clientsMu.Unlock()

		case c := <-h.unregister:
			h.clientsMu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.clientsMu.Unlock()

		case snap := <-h.broadcast:
			body, err := json.Marshal(snap)
			if err != nil {
				continue
			}
			h.clientsMu.RLock()
			for c := range h.clients {
				select {
				case c.send <- body:
				default:
					h.log.Debug("client send buffer full, dropping snapshot for this client")
				}
			}
			h.clientsMu.RUnlock()
		}
	}
}

// Serve starts an HTTP server exposing the WebSocket endpoint at /ws and
// blocks until ctx is cancelled.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("monitor: serve: %w", err)
	}
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 64)}
	h.register <- c

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return // dashboard clients are read-only; any read error ends the session
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case body, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, body); err != nil {
				return
			}
			h.messagesOut.Add(1)

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/citadel-app/citadel/internal/domain"
)

// sendBuffer is the number of queued events per client before it is dropped.
const sendBuffer = 64

type eventClient struct {
	conn *websocket.Conn
	send chan []byte
}

func newEventClient(conn *websocket.Conn) *eventClient {
	c := &eventClient{conn: conn, send: make(chan []byte, sendBuffer)}
	go c.writePump()
	return c
}

func (c *eventClient) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// EventHub pushes progression events to every connected websocket client.
// It implements domain.Notifier; a slow client is disconnected rather than
// blocking the engine.
type EventHub struct {
	mu       sync.RWMutex
	clients  map[*eventClient]bool
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewEventHub creates an empty hub. origins lists the allowed Origin headers;
// "*" or an empty list allows any.
func NewEventHub(origins []string, logger *zap.Logger) *EventHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &EventHub{
		clients: make(map[*eventClient]bool),
		logger:  logger.Named("EventHub"),
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || len(allowed) == 0 || allowed["*"] || allowed[origin]
		},
	}
	return h
}

// Notify implements domain.Notifier.
func (h *EventHub) Notify(ev domain.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal event", zap.Error(err))
		return
	}

	// Sends happen under the read lock so no channel is closed mid-send.
	var slow []*eventClient
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("event client too slow, disconnecting")
		h.remove(c)
	}
}

// ClientCount reports the number of connected clients.
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// HandleEvents upgrades the request and streams events until the client leaves.
func (h *EventHub) HandleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newEventClient(conn)
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	h.logger.Debug("client connected", zap.String("remote", r.RemoteAddr))

	go func() {
		defer func() {
			h.remove(c)
			h.logger.Debug("client disconnected", zap.String("remote", r.RemoteAddr))
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *EventHub) remove(c *eventClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

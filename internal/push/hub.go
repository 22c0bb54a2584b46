// Package push fans notification payloads out to connected UI clients.
//
// Delivery is pass-through: the payload text becomes the notification body
// verbatim, with no business logic in between.
package push

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/erpgo/pos-storefront/internal/obs"
)

// DefaultTitle is used for every pass-through notification.
const DefaultTitle = "POS System"

// Notification is the wire shape sent to websocket clients.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks connected clients and broadcasts notifications to them.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// ServeWS upgrades the request and registers the connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		obs.Logger.Warn("ws_upgrade_failed", "error", err.Error())
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 16)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	obs.Logger.Info("ws_client_connected", "clients", n)

	go h.writer(c)
	go h.reader(c)
}

// writer owns all writes to the connection; gorilla allows one concurrent
// writer per conn.
func (h *Hub) writer(c *client) {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.drop(c)
			return
		}
	}
	c.conn.Close()
}

// reader discards inbound frames and drops the client once the peer goes
// away.
func (h *Hub) reader(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

// Broadcast sends the notification to every connected client. Clients too
// slow to keep up miss the message rather than block the caller.
func (h *Hub) Broadcast(n Notification) {
	msg, err := json.Marshal(n)
	if err != nil {
		obs.Logger.Error("push_marshal_failed", "error", err.Error())
		return
	}
	// Sending under the lock keeps close(c.send) in drop from racing the
	// send; the per-client channel send never blocks.
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			obs.Logger.Warn("push_client_lagging")
		}
	}
}

// Count reports the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

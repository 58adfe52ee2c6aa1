// Package live pushes route session events to connected dashboard clients.
package live

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"school_transport/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	clientBuf  = 32
)

// Upgrader is shared by the websocket handler.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	conn *websocket.Conn
	send chan session.Event
}

// Hub fans events out to every registered client. A client whose buffer is
// full is disconnected rather than slowing the others down.
type Hub struct {
	broadcast chan session.Event
	quit      chan struct{}

	mu      sync.Mutex
	clients map[*client]bool
}

func NewHub() *Hub {
	h := &Hub{
		broadcast: make(chan session.Event, 100),
		quit:      make(chan struct{}),
		clients:   make(map[*client]bool),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			return
		case e := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- e:
				default:
					logrus.WithField("remote", c.conn.RemoteAddr().String()).Warn("live client too slow, dropping")
					h.removeLocked(c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Notify implements session.Notifier.
func (h *Hub) Notify(e session.Event) {
	select {
	case h.broadcast <- e:
	default:
		logrus.Warn("live broadcast channel full, dropping event")
	}
}

// Register takes ownership of conn and starts its pumps.
func (h *Hub) Register(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan session.Event, clientBuf)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	logrus.WithField("remote", conn.RemoteAddr().String()).Info("live client registered")

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// readPump only exists to notice closes and answer pings.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithError(err).Debug("live client read error")
			}
			return
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
		case e, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(e); err != nil {
				logrus.WithError(err).Debug("live client write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close stops the hub and disconnects every client.
func (h *Hub) Close() {
	close(h.quit)
	h.mu.Lock()
	for c := range h.clients {
		h.removeLocked(c)
	}
	h.mu.Unlock()
}

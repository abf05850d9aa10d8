package ws

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const (
	sendBuffer   = 32
	pingInterval = 30 * time.Second
	pongWait     = 70 * time.Second
	writeWait    = 10 * time.Second
	readLimit    = 4 << 10
)

// Envelope is the frame sent to clients.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub keeps one room per user; every open connection of that user joins it.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewHub() *Hub { return &Hub{rooms: make(map[string]*Room)} }

func UserRoom(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

// Join puts c into the room, creating the room on first use.
func (h *Hub) Join(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok {
		r = &Room{
			id:      roomID,
			clients: make(map[*Client]struct{}),
		}
		h.rooms[roomID] = r
	}
	r.add(c)
	c.hub, c.room = h, r
}

// leave removes c from its room and drops the room once it is empty.
func (h *Hub) leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r := c.room
	if r == nil {
		return
	}
	if r.remove(c) == 0 && h.rooms[r.id] == r {
		delete(h.rooms, r.id)
	}
}

func (h *Hub) Broadcast(roomID string, payload []byte) {
	h.mu.RLock()
	r := h.rooms[roomID]
	h.mu.RUnlock()
	if r != nil {
		r.Broadcast(payload)
	}
}

// Notify sends an event to every connection of the user. A user without
// open connections is not an error.
func (h *Hub) Notify(userID int64, kind string, data any) error {
	b, err := json.Marshal(Envelope{Type: kind, Data: data})
	if err != nil {
		return errors.Wrap(err, "marshal notification")
	}
	h.Broadcast(UserRoom(userID), b)
	return nil
}

// Size returns the number of connections in the room.
func (h *Hub) Size(roomID string) int {
	h.mu.RLock()
	r := h.rooms[roomID]
	h.mu.RUnlock()
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Rooms returns the number of rooms with at least one connection.
func (h *Hub) Rooms() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

type Room struct {
	id      string
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func (r *Room) add(c *Client) {
	r.mu.Lock()
	r.clients[c] = struct{}{}
	r.mu.Unlock()
}

// remove returns the number of clients left.
func (r *Room) remove(c *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
	return len(r.clients)
}

// Broadcast never blocks: a client whose buffer is full is disconnected.
func (r *Room) Broadcast(msg []byte) {
	r.mu.RLock()
	var slow []*Client
	for c := range r.clients {
		select {
		case c.Send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range slow {
		go c.Close()
	}
}

type Client struct {
	conn   *websocket.Conn
	hub    *Hub
	room   *Room
	userID int64
	once   sync.Once
	Send   chan []byte
}

func NewClient(conn *websocket.Conn, userID int64) *Client {
	return &Client{
		conn:   conn,
		userID: userID,
		Send:   make(chan []byte, sendBuffer),
	}
}

// Close is safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		if c.hub != nil {
			c.hub.leave(c)
		}
		if c.conn != nil {
			_ = c.conn.Close()
		}
		close(c.Send)
	})
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// ReadPump only keeps the connection alive; notifications are one-way so
// incoming frames are discarded.
func (c *Client) ReadPump() {
	defer c.Close()
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// NewUpgrader builds an upgrader that accepts the listed origins. An empty
// list accepts any origin.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			_, ok := allowed[r.Header.Get("Origin")]
			return ok
		},
	}
}

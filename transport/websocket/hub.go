package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/shiproute/routing/planner"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Pending broadcasts before new ones are dropped.
	broadcastBuffer = 256
)

// Event names sent to clients
const (
	EventStep          = "step"
	EventSearchDeleted = "search_deleted"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins, like the REST API
		return true
	},
}

// Message is a WebSocket message for the clients watching one search
type Message struct {
	SearchID string              `json:"search_id"`
	Event    string              `json:"event"`
	Step     *planner.StepResult `json:"step,omitempty"`
	Data     interface{}         `json:"data,omitempty"`
}

// Client represents a WebSocket client
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	searchID string
}

// Hub maintains the set of active clients and broadcasts search progress
type Hub struct {
	// Registered clients by search ID
	searches map[string]map[*Client]bool
	mu       sync.RWMutex

	// Outbound messages for the clients of a search
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		searches:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// ServeWS upgrades the request and attaches the connection to a search
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, searchID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, 256),
		searchID: searchID,
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// BroadcastStep sends one expansion step to every client of a search
func (h *Hub) BroadcastStep(searchID string, step planner.StepResult) {
	h.enqueue(&Message{
		SearchID: searchID,
		Event:    EventStep,
		Step:     &step,
	})
}

// BroadcastEvent sends a custom event to every client of a search
func (h *Hub) BroadcastEvent(searchID string, event string, data interface{}) {
	h.enqueue(&Message{
		SearchID: searchID,
		Event:    event,
		Data:     data,
	})
}

// ClientCount returns the number of clients watching a search
func (h *Hub) ClientCount(searchID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.searches[searchID])
}

// enqueue hands a message to Run without blocking the caller
func (h *Hub) enqueue(message *Message) {
	select {
	case h.broadcast <- message:
	default:
		log.Printf("WebSocket broadcast queue full, dropping %s for search %s", message.Event, message.SearchID)
	}
}

// registerClient adds a client to a search
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.searches[client.searchID] == nil {
		h.searches[client.searchID] = make(map[*Client]bool)
	}
	h.searches[client.searchID][client] = true

	log.Printf("Client registered for search %s (total clients: %d)",
		client.searchID, len(h.searches[client.searchID]))
}

// unregisterClient removes a client from a search
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.searches[client.searchID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)

	// Clean up empty searches
	if len(clients) == 0 {
		delete(h.searches, client.searchID)
	}

	log.Printf("Client unregistered from search %s (remaining clients: %d)",
		client.searchID, len(clients))
}

// broadcastMessage sends a message to all clients of a search
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal broadcast message: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.searches[message.SearchID] {
		select {
		case client.send <- data:
		default:
			// Client's send channel is full, drop it
			h.removeLocked(client)
		}
	}
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Incoming messages are ignored; reading keeps the connection alive
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
// Each message is written as its own frame so clients can decode one step
// per read.
func (c *Client) writePump() {
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
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

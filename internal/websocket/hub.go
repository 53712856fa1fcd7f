package websocket

import (
	"sync"

	"github.com/dennisdiepolder/teamops/internal/metrics"
	"github.com/rs/zerolog"
)

// Hub maintains the set of active dashboard clients and broadcasts snapshots
// to them
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound snapshots
	broadcast chan []byte

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Last broadcast payload, replayed to clients as they connect
	latest []byte

	mu sync.RWMutex

	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewHub creates a new Hub
func NewHub(logger zerolog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		metrics:    m,
		logger:     logger.With().Str("component", "hub").Logger(),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if h.latest != nil {
				select {
				case client.send <- h.latest:
				default:
				}
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.metrics.RecordWebSocketConnect()
			h.logger.Info().
				Str("client_id", client.id).
				Int("total_clients", total).
				Msg("client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.removeLocked(client)
				h.logger.Info().
					Str("client_id", client.id).
					Int("total_clients", len(h.clients)).
					Msg("client disconnected")
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.broadcastRaw(message)
		}
	}
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(message []byte) {
	h.broadcast <- message
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcastRaw(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = message
	for client := range h.clients {
		select {
		case client.send <- message:
			h.metrics.RecordWebSocketMessage()
		default:
			// Client's send buffer is full, close and remove it
			h.removeLocked(client)
			h.metrics.RecordWebSocketError()
			h.logger.Warn().
				Str("client_id", client.id).
				Msg("client send buffer full, closing connection")
		}
	}
}

func (h *Hub) removeLocked(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.metrics.RecordWebSocketDisconnect()
}

package observer

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Hub fans StateEvents out to every client subscribed to the event's
// GraphID. Grounded on the teacher's internal/infrastructure/websocket/hub.go
// (register/unregister/broadcast channels owned by a single goroutine),
// narrowed from {userID, workflowID, executionID} indexing to a single
// graph-id index since one engine drives one live graph at a time.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan StateEvent

	byGraphID map[string]map[*Client]bool

	logger zerolog.Logger
	mu     sync.RWMutex
}

// NewHub constructs a Hub. Call Run in a goroutine to start its event loop.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan StateEvent, 256),
		byGraphID:  make(map[string]map[*Client]bool),
		logger:     log.With().Str("component", "observer").Logger(),
	}
}

// Run drains the hub's channels until stop is closed.
func (h *Hub) Run(stop <-chan struct{}) {
	for {
		select {
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case event := <-h.broadcast:
			h.dispatch(event)
		case <-stop:
			return
		}
	}
}

func (h *Hub) registerClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *Hub) unregisterClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	for graphID := range c.subscriptions {
		if clients, ok := h.byGraphID[graphID]; ok {
			delete(clients, c)
			if len(clients) == 0 {
				delete(h.byGraphID, graphID)
			}
		}
	}
}

// Publish enqueues an event for delivery to every subscriber of its GraphID.
func (h *Hub) Publish(event StateEvent) {
	h.broadcast <- event
}

func (h *Hub) dispatch(event StateEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := h.byGraphID[event.GraphID]
	for c := range clients {
		select {
		case c.send <- event:
		default:
			h.logger.Warn().Str("client", c.id).Msg("client buffer full, dropping state event")
		}
	}
}

// Subscribe registers c for events on graphID.
func (h *Hub) Subscribe(c *Client, graphID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.subscriptions[graphID] = true
	if h.byGraphID[graphID] == nil {
		h.byGraphID[graphID] = make(map[*Client]bool)
	}
	h.byGraphID[graphID][c] = true
}

// Unsubscribe removes c's subscription to graphID.
func (h *Hub) Unsubscribe(c *Client, graphID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(c.subscriptions, graphID)
	if clients, ok := h.byGraphID[graphID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.byGraphID, graphID)
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

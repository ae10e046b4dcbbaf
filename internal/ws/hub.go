package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/restaurantia/api/internal/events"
	"github.com/rs/zerolog/log"
)

// Hub maintains the set of active clients and broadcasts events to them.
// Clients join one room per topic ("pedidos", "inventario").
type Hub struct {
	// Registered clients by topic
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	// Outbound events to broadcast
	broadcast chan events.Event

	// Closed when Run returns
	done chan struct{}

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan events.Event, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop and returns when ctx is cancelled.
// This should be called as a goroutine: go hub.Run(ctx)
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.topic] == nil {
				h.rooms[client.topic] = make(map[*Client]bool)
			}
			h.rooms[client.topic][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			// Marshal event to JSON once
			message, err := json.Marshal(event)
			if err != nil {
				log.Error().Err(err).Str("type", event.Type).Msg("ws: marshal event")
				continue
			}

			h.mu.Lock()
			for client := range h.rooms[event.Topic] {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, drop it
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.rooms[client.topic]
	if !ok {
		return
	}
	if _, exists := clients[client]; exists {
		delete(clients, client)
		close(client.send)
		// Clean up empty rooms
		if len(clients) == 0 {
			delete(h.rooms, client.topic)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.rooms {
		for client := range clients {
			h.remove(client)
		}
	}
}

// Publish queues an event for every client subscribed to its topic.
func (h *Hub) Publish(ctx context.Context, e events.Event) error {
	select {
	case h.broadcast <- e:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClientCount returns how many clients are subscribed to topic.
func (h *Hub) ClientCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[topic])
}

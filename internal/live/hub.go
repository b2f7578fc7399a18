// Package live pushes store change notifications to browsers over
// websockets so open views can refresh.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/erazemk/ewaste/internal/store"
)

// Event is the message sent to every client after a store mutation.
type Event struct {
	Type    string `json:"type"`
	Version uint64 `json:"version"`
	Reason  string `json:"reason"`
	ID      string `json:"id,omitempty"`
}

// Hub tracks connected clients and fans out events to them.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewHub creates a hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
	}
}

// Run serves registrations and broadcasts until ctx is done, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			slog.Debug("live client connected", "remote", c.remote)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			slog.Debug("live client disconnected", "remote", c.remote)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow client; drop it rather than stall the hub.
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues ev for all clients. It never blocks: if the queue is
// full the event is dropped, since the next one carries a newer version.
func (h *Hub) Publish(ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		slog.Error("encoding live event", "error", err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		slog.Warn("live event dropped", "version", ev.Version)
	}
}

// OnChange adapts store changes into events. Pass it to Store.Subscribe.
func (h *Hub) OnChange(c store.Change) {
	h.Publish(Event{Type: "state", Version: c.Version, Reason: c.Op, ID: c.ID})
}

/*
Package live pushes server events to signed-in users over WebSocket.

The Hub tracks every open connection per user and fans a pushed event out to all of them.
A user may hold several connections (tabs, devices) up to MaxConnectionsPerUser; the oldest
one is kicked when a new connection goes over the limit.
*/
package live

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"studyhive/internal/pkg/logx"
)

const (
	// MaxConnectionsPerUser bounds the concurrent connections of one user.
	MaxConnectionsPerUser = 5

	pushChannelBuffer = 1024
)

// Event is the frame written to clients.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type delivery struct {
	userID string
	data   []byte
}

// Hub routes events to the connections of each user.
type Hub struct {
	// open connections per user, oldest first.
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	push       chan delivery

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// mu protects the clients map for readers outside the run loop.
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a Hub and starts its event loop.
func NewHub() *Hub {
	h := &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client, 64),
		push:       make(chan delivery, pushChannelBuffer),
		stopChan:   make(chan struct{}),
		logger:     logx.Logger().With().Str("component", "Hub").Logger(),
	}

	h.wg.Add(1)
	go h.run()

	return h
}

func (h *Hub) run() {
	defer h.wg.Done()
	defer h.closeAll()

	for {
		select {
		case c := <-h.register:
			h.add(c)

		case c := <-h.unregister:
			h.remove(c)

		case d := <-h.push:
			h.deliver(d)

		case <-h.stopChan:
			h.logger.Info().Msg("Hub stop signal received.")
			return
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	conns := h.clients[c.userID]
	var kicked *Client
	if len(conns) >= MaxConnectionsPerUser {
		kicked, conns = conns[0], conns[1:]
	}
	h.clients[c.userID] = append(conns, c)
	total := len(h.clients[c.userID])
	h.mu.Unlock()

	if kicked != nil {
		h.logger.Warn().Str("user_id", c.userID).Msg("Connection limit reached. Kicking oldest connection.")
		kicked.Kick("Too many open connections.")
	}

	h.logger.Info().Str("user_id", c.userID).Int("connections", total).Msg("Client connected.")
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	conns := h.clients[c.userID]
	idx := -1
	for i, existing := range conns {
		if existing == c {
			idx = i
			break
		}
	}
	if idx >= 0 {
		conns = append(conns[:idx], conns[idx+1:]...)
		if len(conns) == 0 {
			delete(h.clients, c.userID)
		} else {
			h.clients[c.userID] = conns
		}
	}
	h.mu.Unlock()

	c.closeSend()

	if idx >= 0 {
		h.logger.Info().Str("user_id", c.userID).Int("connections", len(conns)).Msg("Client disconnected.")
	}
}

func (h *Hub) deliver(d delivery) {
	h.mu.RLock()
	conns := append([]*Client(nil), h.clients[d.userID]...)
	h.mu.RUnlock()

	for _, c := range conns {
		if !c.enqueue(d.data) {
			h.logger.Warn().Str("user_id", d.userID).Msg("Client send channel full, unregistering.")
			select {
			case h.unregister <- c:
			default:
				h.logger.Warn().Msg("Unregister channel full, skipping client cleanup.")
			}
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, conns := range h.clients {
		for _, c := range conns {
			c.closeSend()
		}
	}
	h.clients = make(map[string][]*Client)
}

// Register adds a connection. It returns false once the Hub is shut down.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.stopChan:
		c.closeSend()
		return false
	}
}

// Unregister removes a connection and closes its send queue.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopChan:
	}
}

// Push queues an event for every connection of userID. Users without an open
// connection are skipped.
func (h *Hub) Push(userID, event string, payload any) {
	if h.Connections(userID) == 0 {
		return
	}

	data, err := json.Marshal(Event{Type: event, Data: payload})
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("Error marshaling event.")
		return
	}

	select {
	case h.push <- delivery{userID: userID, data: data}:
	case <-h.stopChan:
	default:
		h.logger.Warn().Str("user_id", userID).Str("event", event).Msg("Push channel full, dropping event.")
	}
}

// Connections counts the open connections of userID.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Shutdown stops the event loop and closes every connection queue.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down Hub...")

	h.stopOnce.Do(func() { close(h.stopChan) })
	h.wg.Wait()

	h.logger.Info().Msg("Hub shutdown complete.")
}

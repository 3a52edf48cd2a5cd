package chat

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/carousell/ct-go/pkg/logger"

	"github.com/nguyentranbao-ct/chat-server/internal/config"
)

// EventRelay receives a copy of every outbound broadcast, typically for a
// message broker so other systems can follow the chat stream. Publish must
// not block.
type EventRelay interface {
	Publish(event string, payload []byte)
}

// Hub tracks every live socket session and fans events out to them. It
// implements usecase.Broadcaster. All sends are best-effort: a session whose
// buffer is full is dropped rather than allowed to stall the rest.
type Hub struct {
	log   *logger.Logger
	relay EventRelay

	mu       sync.RWMutex
	sessions map[string]*Client
	users    map[string]map[*Client]bool
	rooms    map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	sendBufferSize int
}

func NewHub(conf *config.Config, relay EventRelay) *Hub {
	return &Hub{
		log:            logger.MustNamed("chat_hub"),
		relay:          relay,
		sessions:       make(map[string]*Client),
		users:          make(map[string]map[*Client]bool),
		rooms:          make(map[string]map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		done:           make(chan struct{}),
		sendBufferSize: conf.Chat.SendBufferSize,
	}
}

// Run is the hub's registration loop. It exits when ctx is cancelled, after
// closing every remaining session.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return
		}
	}
}

// Register and Unregister hand the session to the run loop. During shutdown
// the loop is gone, so the sends give up instead of blocking a pump
// goroutine forever.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sessions[c.id] = c
	if _, ok := h.users[c.userID]; !ok {
		h.users[c.userID] = make(map[*Client]bool)
	}
	h.users[c.userID][c] = true

	h.log.Infow("session connected",
		"session_id", c.id,
		"user_id", c.userID,
		"user_sessions", len(h.users[c.userID]))
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[c.id]; !ok {
		return
	}
	delete(h.sessions, c.id)

	if clients, ok := h.users[c.userID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.users, c.userID)
		}
	}
	for roomID, clients := range h.rooms {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, roomID)
		}
	}
	close(c.send)

	h.log.Infow("session disconnected", "session_id", c.id, "user_id", c.userID)
}

// JoinRoom subscribes the session to a room's broadcasts.
func (h *Hub) JoinRoom(c *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][c] = true
}

func (h *Hub) LeaveRoom(c *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.rooms[roomID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// InRoom reports whether the session is currently subscribed to the room.
func (h *Hub) InRoom(c *Client, roomID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[roomID][c]
}

// RoomsOf returns the ids of the rooms the session is subscribed to.
func (h *Hub) RoomsOf(c *Client) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []string
	for roomID, clients := range h.rooms {
		if clients[c] {
			out = append(out, roomID)
		}
	}
	return out
}

// MembersOf returns the distinct user ids with a session in the room.
func (h *Hub) MembersOf(roomID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for c := range h.rooms[roomID] {
		if !seen[c.userID] {
			seen[c.userID] = true
			out = append(out, c.userID)
		}
	}
	return out
}

func (h *Hub) ToRoom(roomID, event string, payload any) {
	h.ToRoomExcept(roomID, "", event, payload)
}

func (h *Hub) ToRoomExcept(roomID, excludeSessionID, event string, payload any) {
	data, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.publish(event, data)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[roomID] {
		if c.id == excludeSessionID {
			continue
		}
		h.send(c, data)
	}
}

func (h *Hub) ToUser(userID, event string, payload any) {
	data, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.publish(event, data)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.users[userID] {
		h.send(c, data)
	}
}

func (h *Hub) ToSession(sessionID, event string, payload any) {
	data, ok := h.encode(event, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.sessions[sessionID]; ok {
		h.send(c, data)
	}
}

func (h *Hub) encode(event string, payload any) ([]byte, bool) {
	data, err := json.Marshal(outboundEvent{Event: event, Data: payload})
	if err != nil {
		h.log.Errorw("failed to marshal event", "event", event, "error", err)
		return nil, false
	}
	return data, true
}

func (h *Hub) publish(event string, data []byte) {
	if h.relay != nil {
		h.relay.Publish(event, data)
	}
}

// send queues data for one session without blocking. A full buffer means
// the client stopped draining; it gets unregistered instead of stalling
// every other session behind the hub lock.
func (h *Hub) send(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.log.Warnw("send buffer full, dropping session", "session_id", c.id, "user_id", c.userID)
		go h.Unregister(c)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.sessions {
		close(c.send)
	}
	h.sessions = make(map[string]*Client)
	h.users = make(map[string]map[*Client]bool)
	h.rooms = make(map[string]map[*Client]bool)
	h.log.Infow("hub shut down")
}

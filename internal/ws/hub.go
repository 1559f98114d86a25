package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub is the in-process room registry. Membership lives only in this
// process: it is not persisted, does not survive a restart, and clients
// re-join on every new connection. A connection may be a member of any
// number of booking rooms at once.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client             // socketID -> client
	rooms   map[string]map[string]struct{} // bookingID -> set of socketIDs
	joined  map[string]map[string]struct{} // socketID -> set of bookingIDs
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]struct{}),
		joined:  make(map[string]map[string]struct{}),
	}
}

// Register adds an authenticated connection to the registry. The client
// is in no rooms until it joins one.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
	h.joined[c.ID] = make(map[string]struct{})
}

// Unregister removes a connection from the registry and from every room
// it had joined, then closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	for room := range h.joined[c.ID] {
		h.leaveLocked(c.ID, room)
	}
	delete(h.joined, c.ID)
	delete(h.clients, c.ID)
	close(c.Send)
}

// Join adds a connection to a booking room. There is no authorization
// check against booking participants here; see the chat handler notes.
func (h *Hub) Join(socketID, bookingID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[socketID]; !ok {
		return
	}
	if h.rooms[bookingID] == nil {
		h.rooms[bookingID] = make(map[string]struct{})
	}
	h.rooms[bookingID][socketID] = struct{}{}
	h.joined[socketID][bookingID] = struct{}{}
}

// Leave removes a connection from a booking room.
func (h *Hub) Leave(socketID, bookingID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(socketID, bookingID)
	if set, ok := h.joined[socketID]; ok {
		delete(set, bookingID)
	}
}

func (h *Hub) leaveLocked(socketID, bookingID string) {
	if members, ok := h.rooms[bookingID]; ok {
		delete(members, socketID)
		if len(members) == 0 {
			delete(h.rooms, bookingID)
		}
	}
}

// RoomSize returns the current number of connections in a room.
func (h *Hub) RoomSize(bookingID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[bookingID])
}

// Envelope is the wire format for every socket frame, in both
// directions: an event name plus a JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Broadcast fans an event out to every member of a room except the
// connection named by excludeID (pass "" to reach all members). A slow
// client whose send buffer is full has the frame dropped rather than
// stalling the room.
func (h *Hub) Broadcast(bookingID, event string, payload any, excludeID string) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ws: marshal %s payload failed: %v", event, err)
		return
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		log.Printf("ws: marshal %s envelope failed: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for socketID := range h.rooms[bookingID] {
		if socketID == excludeID {
			continue
		}
		c, ok := h.clients[socketID]
		if !ok {
			continue
		}
		select {
		case c.Send <- frame:
		default:
			log.Printf("ws: dropping %s frame for slow client %s", event, socketID)
		}
	}
}

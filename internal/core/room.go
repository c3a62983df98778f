package core

import "sync"

// Room groups clients subscribed to the same conversation. Its lock serializes
// membership changes against fan-out so a broadcast sees a consistent member set
// and broadcasts to one room are delivered in call order.
type Room struct {
	Name string

	mu      sync.Mutex
	clients map[*Client]struct{}
}

// NewRoom constructs a room with no clients.
func NewRoom(name string) *Room {
	return &Room{
		Name:    name,
		clients: make(map[*Client]struct{}),
	}
}

// AddClient inserts a client into the room. Returns true if newly added.
func (r *Room) AddClient(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.clients[c]; exists {
		return false
	}
	r.clients[c] = struct{}{}
	return true
}

// RemoveClient deletes a client from the room. Returns true if removed.
func (r *Room) RemoveClient(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.clients[c]; !exists {
		return false
	}
	delete(r.clients, c)
	return true
}

// Members returns a snapshot of the member set.
func (r *Room) Members() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		out = append(out, c)
	}
	return out
}

// Broadcast pushes an event to every member except skip (which may be nil).
// Slow consumers miss the event. Returns the number of members reached.
func (r *Room) Broadcast(event *Event, skip *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	delivered := 0
	for client := range r.clients {
		if client == skip {
			continue
		}
		if client.Push(event) {
			delivered++
		}
	}
	return delivered
}

// Empty returns true if no clients are in the room.
func (r *Room) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients) == 0
}

package core

import (
	"slices"
	"sync"
)

// Rooms tracks which connections are subscribed to which conversation.
// Rooms are created on first join and dropped when the last member leaves.
type Rooms struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	joined map[*Client]map[string]struct{}
}

// NewRooms constructs an empty tracker.
func NewRooms() *Rooms {
	return &Rooms{
		rooms:  make(map[string]*Room),
		joined: make(map[*Client]map[string]struct{}),
	}
}

// Join adds c to roomID. Returns false if c was already a member.
func (t *Rooms) Join(roomID string, c *Client) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	room, ok := t.rooms[roomID]
	if !ok {
		room = NewRoom(roomID)
		t.rooms[roomID] = room
	}
	if !room.AddClient(c) {
		return false
	}

	set, ok := t.joined[c]
	if !ok {
		set = make(map[string]struct{})
		t.joined[c] = set
	}
	set[roomID] = struct{}{}
	return true
}

// Leave removes c from roomID. Returns false if c was not a member.
func (t *Rooms) Leave(roomID string, c *Client) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.leaveLocked(roomID, c)
}

// LeaveAll removes c from every room it belongs to and returns those room IDs.
func (t *Rooms) LeaveAll(c *Client) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	set := t.joined[c]
	left := make([]string, 0, len(set))
	for roomID := range set {
		if t.leaveLocked(roomID, c) {
			left = append(left, roomID)
		}
	}
	slices.Sort(left)
	return left
}

func (t *Rooms) leaveLocked(roomID string, c *Client) bool {
	room, ok := t.rooms[roomID]
	if !ok || !room.RemoveClient(c) {
		return false
	}
	if room.Empty() {
		delete(t.rooms, roomID)
	}
	if set, ok := t.joined[c]; ok {
		delete(set, roomID)
		if len(set) == 0 {
			delete(t.joined, c)
		}
	}
	return true
}

// MembersOf returns a snapshot of the room's members. Unknown rooms yield an empty slice.
func (t *Rooms) MembersOf(roomID string) []*Client {
	room := t.room(roomID)
	if room == nil {
		return []*Client{}
	}
	return room.Members()
}

// Broadcast fans an event out to the room's members except skip, holding only
// that room's lock. Returns the number of members reached.
func (t *Rooms) Broadcast(roomID string, event *Event, skip *Client) int {
	room := t.room(roomID)
	if room == nil {
		return 0
	}
	return room.Broadcast(event, skip)
}

func (t *Rooms) room(roomID string) *Room {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rooms[roomID]
}

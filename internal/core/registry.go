package core

import (
	"slices"
	"sync"
)

// Registry maps user identifiers to their active connection and tracks every live
// connection, registered or not.
type Registry struct {
	mu    sync.RWMutex
	users map[string]*Client
	live  map[*Client]struct{}
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]*Client),
		live:  make(map[*Client]struct{}),
	}
}

// Attach records a freshly accepted connection.
func (r *Registry) Attach(c *Client) {
	r.mu.Lock()
	r.live[c] = struct{}{}
	r.mu.Unlock()
}

// Detach forgets a connection. It does not touch user bindings; see Unregister.
func (r *Registry) Detach(c *Client) {
	r.mu.Lock()
	delete(r.live, c)
	r.mu.Unlock()
}

// Register binds userID to c, replacing any previous binding. The superseded
// connection, if any, is returned; it stays open but no longer resolves.
func (r *Registry) Register(userID string, c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.users[userID]
	r.users[userID] = c
	r.live[c] = struct{}{}
	if prev == c {
		return nil
	}
	return prev
}

// Unregister removes the binding that points at c. The lookup is by connection
// identity so a superseded connection never evicts its replacement.
func (r *Registry) Unregister(c *Client) (string, bool) {
	user := c.User()
	if user == "" {
		return "", false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.users[user] != c {
		return "", false
	}
	delete(r.users, user)
	return user, true
}

// Lookup resolves the connection currently bound to userID.
func (r *Registry) Lookup(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.users[userID]
	return c, ok
}

// Connections returns a snapshot of every live connection.
func (r *Registry) Connections() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Client, 0, len(r.live))
	for c := range r.live {
		out = append(out, c)
	}
	return out
}

// Online returns the registered user identifiers, sorted.
func (r *Registry) Online() []string {
	r.mu.RLock()
	users := make([]string, 0, len(r.users))
	for user := range r.users {
		users = append(users, user)
	}
	r.mu.RUnlock()

	slices.Sort(users)
	return users
}

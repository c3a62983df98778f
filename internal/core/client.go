package core

import (
	"sync"
	"sync/atomic"
)

// DefaultClientBuffer is the outbound queue size used when none is configured.
const DefaultClientBuffer = 64

// Client is one live connection as seen by the core layer.
type Client struct {
	ID string

	events chan *Event

	mu     sync.Mutex
	user   string
	closed bool

	dropped atomic.Uint64
}

// NewClient constructs a client with a bounded outbound queue.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultClientBuffer
	}
	return &Client{
		ID:     id,
		events: make(chan *Event, buffer),
	}
}

// Events returns the outbound queue. It is closed when the client is closed.
func (c *Client) Events() <-chan *Event {
	return c.events
}

// User returns the registered user identifier, or "" before registration.
func (c *Client) User() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// bindUser attaches the user identifier once. Binding the same identifier again is allowed.
func (c *Client) bindUser(user string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user != "" && c.user != user {
		return false
	}
	c.user = user
	return true
}

// Push enqueues an event without blocking. It reports false when the event was dropped,
// either because the queue is full or the client is closed.
func (c *Client) Push(ev *Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.events <- ev:
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}

// Dropped reports how many events were discarded because the queue was full.
func (c *Client) Dropped() uint64 {
	return c.dropped.Load()
}

// Alive reports whether the client still accepts events.
func (c *Client) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Close stops further pushes and closes the outbound queue. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
}

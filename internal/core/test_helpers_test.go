package core

import (
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustNotEvent drains everything queued on ch and fails if any event has the given kind.
func mustNotEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v: %+v", kind, ev)
			}
		default:
			return
		}
	}
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	return NewHub(nil)
}

func connectUser(t *testing.T, h *Hub, id, user string) *Client {
	t.Helper()

	c := NewClient(id, 256)
	h.Connect(c)
	if user != "" {
		if err := h.RegisterUser(c, user); err != nil {
			t.Fatalf("register %s: %v", user, err)
		}
	}
	return c
}

package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Hub coordinates the registry, room tracker and the routing components.
// It holds no goroutine of its own; connection handlers call into it
// concurrently and every shared structure carries its own lock.
type Hub struct {
	registry *Registry
	rooms    *Rooms
	log      *zerolog.Logger

	// presence orders binding changes with the announcement that reports them.
	presence sync.Mutex
}

// NewHub creates a new relay hub. A nil logger disables logging.
func NewHub(logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		registry: NewRegistry(),
		rooms:    NewRooms(),
		log:      logger,
	}
}

// Registry exposes the connection registry.
func (h *Hub) Registry() *Registry { return h.registry }

// Rooms exposes the room membership tracker.
func (h *Hub) Rooms() *Rooms { return h.rooms }

// Online returns the user identifiers currently registered.
func (h *Hub) Online() []string { return h.registry.Online() }

// Connect records a newly accepted connection.
func (h *Hub) Connect(c *Client) {
	h.registry.Attach(c)
	h.log.Debug().Str("client_id", c.ID).Msg("client connected")
}

// Disconnect tears down every trace of c and announces the user offline if c
// still held the user's binding.
func (h *Hub) Disconnect(c *Client) {
	rooms := h.rooms.LeaveAll(c)
	h.registry.Detach(c)

	h.presence.Lock()
	user, removed := h.registry.Unregister(c)
	if removed {
		h.announce(user, PresenceOffline)
	}
	h.presence.Unlock()

	c.Close()

	h.log.Debug().
		Str("client_id", c.ID).
		Str("user_id", c.User()).
		Strs("rooms", rooms).
		Uint64("dropped", c.Dropped()).
		Msg("client disconnected")
}

// Run blocks until ctx is done and then closes every live connection so their
// writers drain and exit.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	clients := h.registry.Connections()
	for _, c := range clients {
		c.Close()
	}
	h.log.Info().Int("clients", len(clients)).Msg("hub stopped")
}

// Handle dispatches one client command. Rejected commands are reported back to
// the client as an error event and returned.
func (h *Hub) Handle(c *Client, cmd *Command) error {
	var err error
	switch cmd.Kind {
	case CommandJoinAsUser:
		err = h.RegisterUser(c, cmd.User)
	case CommandJoinRoom:
		err = h.JoinRoom(c, cmd.Room)
	case CommandLeaveRoom:
		err = h.LeaveRoom(c, cmd.Room)
	case CommandSendMessage:
		err = h.Route(c, cmd.Room, cmd.Message)
	case CommandSendTyping:
		err = h.RelayTyping(c, cmd.Typing)
	case CommandCallInitiate:
		err = h.Initiate(c, cmd.Call)
	case CommandCallAccept:
		err = h.Accept(c, cmd.Call)
	case CommandCallEnd:
		err = h.End(c, cmd.Call)
	default:
		err = coreError(ErrCodeUnknownEvent, fmt.Sprintf("unknown command %d", cmd.Kind))
	}

	if err != nil {
		h.reject(c, err)
	}
	return err
}

// RegisterUser binds user to c and announces the user online. A connection keeps
// the first identifier it registers with.
func (h *Hub) RegisterUser(c *Client, user string) error {
	if user == "" {
		return coreError(ErrCodeBadRequest, "userId is required")
	}
	if !c.bindUser(user) {
		return coreError(ErrCodeAlreadyRegistered, fmt.Sprintf("connection is registered as %q", c.User()))
	}

	h.presence.Lock()
	prev := h.registry.Register(user, c)
	h.announce(user, PresenceOnline)
	h.presence.Unlock()

	if prev != nil {
		h.log.Info().
			Str("user_id", user).
			Str("client_id", c.ID).
			Str("superseded_client_id", prev.ID).
			Msg("user binding replaced")
	}
	h.log.Info().Str("user_id", user).Str("client_id", c.ID).Msg("user joined")
	return nil
}

// JoinRoom subscribes c to a conversation. Joining twice has no further effect.
func (h *Hub) JoinRoom(c *Client, room string) error {
	if room == "" {
		return coreError(ErrCodeBadRequest, "conversationId is required")
	}
	if h.rooms.Join(room, c) {
		h.log.Debug().Str("client_id", c.ID).Str("conversation_id", room).Msg("joined conversation")
	}
	return nil
}

// LeaveRoom unsubscribes c from a conversation. Leaving a room c is not in is a no-op.
func (h *Hub) LeaveRoom(c *Client, room string) error {
	if room == "" {
		return coreError(ErrCodeBadRequest, "conversationId is required")
	}
	if h.rooms.Leave(room, c) {
		h.log.Debug().Str("client_id", c.ID).Str("conversation_id", room).Msg("left conversation")
	}
	return nil
}

func (h *Hub) reject(c *Client, err error) {
	var ce *CoreError
	if !errors.As(err, &ce) {
		ce = coreError(ErrCodeBadRequest, err.Error())
	}
	c.Push(&Event{Kind: EventError, Error: ce})
	h.log.Warn().Str("client_id", c.ID).Str("code", ce.Code).Msg(ce.Message)
}

// Reject reports an error produced outside the hub (decoding, rate limiting)
// to the client.
func (h *Hub) Reject(c *Client, code, msg string) {
	h.reject(c, coreError(code, msg))
}

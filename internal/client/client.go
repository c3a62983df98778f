package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/convo-relay/internal/proto"
)

const (
	DefaultReconnectAttempts = 5
	DefaultReconnectDelay    = time.Second

	writeTimeout = 10 * time.Second
)

// ErrNotConnected is returned by emitters while the socket is down.
var ErrNotConnected = errors.New("relay client: not connected")

// Options configures a relay client.
type Options struct {
	// URL of the relay socket, e.g. ws://localhost:3001/ws.
	URL string
	// UserID is announced on every (re)connect when set.
	UserID string
	// ReconnectAttempts bounds consecutive reconnect tries. Zero means the
	// default; a negative value disables reconnection.
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	HTTPHeader        http.Header
	Logger            *zerolog.Logger
}

// Client is a relay connection with event listeners and emitters.
type Client struct {
	opts Options
	log  *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu            sync.Mutex
	conn          *websocket.Conn
	user          string
	conversations map[string]struct{}
	handlers      map[string][]Handler

	connected atomic.Bool
}

// Dial connects to the relay and keeps the connection alive in the background
// until Close is called or reconnect attempts run out.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, errors.New("relay client: url is required")
	}
	if opts.ReconnectAttempts == 0 {
		opts.ReconnectAttempts = DefaultReconnectAttempts
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c := &Client{
		opts:          opts,
		log:           logger,
		ctx:           runCtx,
		cancel:        cancel,
		done:          make(chan struct{}),
		user:          opts.UserID,
		conversations: make(map[string]struct{}),
		handlers:      make(map[string][]Handler),
	}

	conn, err := c.dial(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	c.attach(conn)

	go c.run(conn)
	return c, nil
}

// On registers a handler for an event. Handlers run on the reader goroutine in
// registration order and must not block.
func (c *Client) On(event string, h Handler) {
	c.mu.Lock()
	c.handlers[event] = append(c.handlers[event], h)
	c.mu.Unlock()
}

// Connected reports whether the socket is currently up.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Done is closed once the client has stopped for good.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close disconnects and stops reconnecting.
func (c *Client) Close() error {
	c.cancel()
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "bye")
	}
	<-c.done
	return nil
}

// JoinAsUser announces the user owning this connection. The identifier is
// re-announced after every reconnect.
func (c *Client) JoinAsUser(ctx context.Context, userID string) error {
	c.mu.Lock()
	c.user = userID
	c.mu.Unlock()
	return c.emit(ctx, proto.InboundUserJoin, proto.UserJoinData{UserID: userID})
}

// JoinConversation subscribes to a conversation's messages and typing events.
func (c *Client) JoinConversation(ctx context.Context, conversationID string) error {
	c.mu.Lock()
	c.conversations[conversationID] = struct{}{}
	c.mu.Unlock()
	return c.emit(ctx, proto.InboundConversationJoin, proto.ConversationData{ConversationID: conversationID})
}

// LeaveConversation unsubscribes from a conversation.
func (c *Client) LeaveConversation(ctx context.Context, conversationID string) error {
	c.mu.Lock()
	delete(c.conversations, conversationID)
	c.mu.Unlock()
	return c.emit(ctx, proto.InboundConversationLeave, proto.ConversationData{ConversationID: conversationID})
}

// SendMessage relays a message to every member of the conversation.
func (c *Client) SendMessage(ctx context.Context, conversationID string, msg proto.ChatMessage) error {
	return c.emit(ctx, proto.InboundMessageSend, proto.SendMessageData{
		ConversationID: conversationID,
		Message:        &msg,
	})
}

// SendTyping relays the typing state of the announced user.
func (c *Client) SendTyping(ctx context.Context, conversationID string, isTyping bool) error {
	c.mu.Lock()
	user := c.user
	c.mu.Unlock()
	if user == "" {
		return errors.New("relay client: join as a user before sending typing state")
	}
	return c.emit(ctx, proto.InboundTypingSend, proto.TypingData{
		ConversationID: conversationID,
		UserID:         user,
		IsTyping:       &isTyping,
	})
}

// CallUser rings another user with an opaque session-negotiation payload.
func (c *Client) CallUser(ctx context.Context, call proto.CallUserData) error {
	if call.From == "" {
		c.mu.Lock()
		call.From = c.user
		c.mu.Unlock()
	}
	return c.emit(ctx, proto.InboundCallUser, call)
}

// AnswerCall returns the callee's payload to the caller.
func (c *Client) AnswerCall(ctx context.Context, to string, signal json.RawMessage) error {
	return c.emit(ctx, proto.InboundCallAnswer, proto.CallAnswerData{Signal: signal, To: to})
}

// EndCall hangs up on the other side.
func (c *Client) EndCall(ctx context.Context, to string) error {
	return c.emit(ctx, proto.InboundCallEnd, proto.CallEndData{To: to})
}

func (c *Client) emit(ctx context.Context, typ string, data any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil || !c.connected.Load() {
		return ErrNotConnected
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, c.opts.URL, &websocket.DialOptions{HTTPHeader: c.opts.HTTPHeader})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.opts.URL, err)
	}
	return conn, nil
}

// attach makes conn current, re-announces the user with their conversations
// and fires connect handlers.
func (c *Client) attach(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	user := c.user
	rooms := make([]string, 0, len(c.conversations))
	for id := range c.conversations {
		rooms = append(rooms, id)
	}
	c.mu.Unlock()
	c.connected.Store(true)

	if user != "" {
		if err := c.emit(c.ctx, proto.InboundUserJoin, proto.UserJoinData{UserID: user}); err != nil {
			c.log.Warn().Err(err).Str("user_id", user).Msg("announce user")
		}
	}
	for _, id := range rooms {
		if err := c.emit(c.ctx, proto.InboundConversationJoin, proto.ConversationData{ConversationID: id}); err != nil {
			c.log.Warn().Err(err).Str("conversation_id", id).Msg("rejoin conversation")
		}
	}

	c.log.Debug().Str("url", c.opts.URL).Msg("relay connected")
	c.dispatch(EventConnect, nil)
}

func (c *Client) run(conn *websocket.Conn) {
	defer close(c.done)

	for {
		err := c.readLoop(conn)
		c.connected.Store(false)
		c.dispatch(EventDisconnect, nil)
		if c.ctx.Err() != nil {
			return
		}
		c.log.Info().Err(err).Msg("relay connection lost")

		conn = c.reconnect()
		if conn == nil {
			return
		}
		c.attach(conn)
	}
}

func (c *Client) reconnect() *websocket.Conn {
	for attempt := 1; attempt <= c.opts.ReconnectAttempts; attempt++ {
		select {
		case <-c.ctx.Done():
			return nil
		case <-time.After(c.opts.ReconnectDelay):
		}

		conn, err := c.dial(c.ctx)
		if err == nil {
			return conn
		}
		c.log.Warn().Err(err).Int("attempt", attempt).Msg("relay reconnect failed")
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		var out struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(c.ctx, conn, &out); err != nil {
			return err
		}

		if out.Type == proto.OutboundTypeError {
			data, _ := json.Marshal(out.Error)
			c.dispatch(EventError, data)
			continue
		}
		c.dispatch(out.Event, out.Data)
	}
}

func (c *Client) dispatch(event string, data json.RawMessage) {
	c.mu.Lock()
	handlers := append([]Handler(nil), c.handlers[event]...)
	c.mu.Unlock()

	for _, h := range handlers {
		h(data)
	}
}

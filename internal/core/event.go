package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventPresence announces a user going online or offline.
	EventPresence EventKind = iota
	// EventMessage delivers a chat message stamped as delivered.
	EventMessage
	// EventMessageAck confirms delivery of a message to its sender.
	EventMessageAck
	// EventTyping relays a typing-state change.
	EventTyping
	// EventError notifies a client about a rejected command.
	EventError

	// EventCallIncoming rings the target of a call.
	EventCallIncoming
	// EventCallAccepted tells the caller the call was answered.
	EventCallAccepted
	// EventCallEnded tells the other side the call is over.
	EventCallEnded
	// EventCallUnreachable tells the sender a signal had no recipient.
	EventCallUnreachable
)

// PresenceStatus is the online state of a user.
type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceOffline PresenceStatus = "offline"
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind     EventKind
	User     string
	Presence PresenceStatus
	Message  Message
	Typing   Typing
	Call     *CallEvent // non-nil for call events
	Error    *CoreError
}

// CallEvent holds data specific to call events.
type CallEvent struct {
	From           string
	Signal         []byte
	ConversationID string
	CallType       CallKind
	Target         string      // for EventCallUnreachable
	Action         CommandKind // for EventCallUnreachable
}

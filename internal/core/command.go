package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinAsUser binds a user identifier to the connection.
	CommandJoinAsUser CommandKind = iota
	// CommandJoinRoom subscribes the connection to a conversation.
	CommandJoinRoom
	// CommandLeaveRoom unsubscribes the connection from a conversation.
	CommandLeaveRoom
	// CommandSendMessage routes a chat message to a conversation.
	CommandSendMessage
	// CommandSendTyping relays a typing-state change.
	CommandSendTyping
	// CommandCallInitiate rings a target user.
	CommandCallInitiate
	// CommandCallAccept answers the original caller.
	CommandCallAccept
	// CommandCallEnd hangs up on the other side.
	CommandCallEnd
)

var commandNames = map[CommandKind]string{
	CommandJoinAsUser:   "join_as_user",
	CommandJoinRoom:     "join_room",
	CommandLeaveRoom:    "leave_room",
	CommandSendMessage:  "send_message",
	CommandSendTyping:   "send_typing",
	CommandCallInitiate: "call_initiate",
	CommandCallAccept:   "call_accept",
	CommandCallEnd:      "call_end",
}

func (k CommandKind) String() string {
	if name, ok := commandNames[k]; ok {
		return name
	}
	return "unknown"
}

// Command represents an action requested by a client.
type Command struct {
	Kind    CommandKind
	User    string
	Room    string
	Message Message
	Typing  Typing
	Call    CallSignal
}

package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Client to server event names.
const (
	InboundUserJoin          = "user:join"
	InboundConversationJoin  = "conversation:join"
	InboundConversationLeave = "conversation:leave"
	InboundMessageSend       = "message:send"
	InboundTypingSend        = "typing:send"
	InboundCallUser          = "call:user"
	InboundCallAnswer        = "call:answer"
	InboundCallEnd           = "call:end"
)

// Server to client event names.
const (
	EventUserStatus       = "user:status"
	EventMessageNew       = "message:new"
	EventMessageDelivered = "message:delivered"
	EventUserTyping       = "user:typing"
	EventCallIncoming     = "call:incoming"
	EventCallAccepted     = "call:accepted"
	EventCallEnded        = "call:ended"
	EventCallUnreachable  = "call:unreachable"
)

const (
	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// UserJoinData announces which user owns the connection.
// A bare JSON string is accepted as shorthand.
type UserJoinData struct {
	UserID string `json:"userId" validate:"required"`
}

// ConversationData names a conversation to join or leave.
// A bare JSON string is accepted as shorthand.
type ConversationData struct {
	ConversationID string `json:"conversationId" validate:"required"`
}

// SendMessageData carries a chat message for a conversation.
type SendMessageData struct {
	ConversationID string       `json:"conversationId" validate:"required"`
	Message        *ChatMessage `json:"message" validate:"required"`
}

// ChatMessage is the wire form of a chat message, both inbound and outbound.
// Fields it does not name are kept in Extra and written back out unchanged.
type ChatMessage struct {
	ID             string    `json:"id,omitempty"`
	ConversationID string    `json:"conversationId,omitempty"`
	SenderID       string    `json:"senderId,omitempty"`
	Content        string    `json:"content,omitempty"`
	MediaURL       string    `json:"mediaUrl,omitempty"`
	MediaType      string    `json:"mediaType,omitempty" validate:"omitempty,oneof=image video audio file"`
	Timestamp      time.Time `json:"timestamp"`
	Status         string    `json:"status,omitempty" validate:"omitempty,oneof=sending sent delivered read"`
	IsDeleted      bool      `json:"isDeleted,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// TypingData is a typing-state change.
type TypingData struct {
	ConversationID string `json:"conversationId" validate:"required"`
	UserID         string `json:"userId,omitempty"`
	IsTyping       *bool  `json:"isTyping" validate:"required"`
}

// CallUserData rings another user.
type CallUserData struct {
	UserToCall     string          `json:"userToCall" validate:"required"`
	SignalData     json.RawMessage `json:"signalData,omitempty"`
	From           string          `json:"from,omitempty"`
	ConversationID string          `json:"conversationId,omitempty"`
	CallType       string          `json:"callType,omitempty" validate:"omitempty,oneof=audio video"`
}

// CallAnswerData answers the caller.
type CallAnswerData struct {
	Signal json.RawMessage `json:"signal,omitempty"`
	To     string          `json:"to" validate:"required"`
}

// CallEndData hangs up on the other side.
type CallEndData struct {
	To string `json:"to" validate:"required"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// UserStatus announces a presence change.
type UserStatus struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

// MessageAck confirms delivery to the sender.
type MessageAck struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

// UserTyping relays a typing-state change.
type UserTyping struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	IsTyping       bool   `json:"isTyping"`
}

// CallIncoming rings the callee.
type CallIncoming struct {
	From           string          `json:"from"`
	Signal         json.RawMessage `json:"signal,omitempty"`
	ConversationID string          `json:"conversationId,omitempty"`
	CallType       string          `json:"callType,omitempty"`
}

// CallUnreachable tells the sender that a call signal found no recipient.
type CallUnreachable struct {
	TargetUserID string `json:"targetUserId"`
	Action       string `json:"action"`
}

// OnlineUsers is the presence snapshot served over HTTP.
type OnlineUsers struct {
	Users []string `json:"users"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

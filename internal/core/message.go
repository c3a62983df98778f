package core

import "time"

// MessageStatus is the delivery state carried on a chat message.
type MessageStatus string

const (
	StatusSending   MessageStatus = "sending"
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

// MediaKind classifies an attached media reference.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
	MediaFile  MediaKind = "file"
)

// Message is a chat message in transit. The relay keeps no copy after fan-out.
// ID is client-generated and treated as opaque.
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	Content        string
	MediaURL       string
	MediaType      MediaKind
	Timestamp      time.Time
	Status         MessageStatus
	IsDeleted      bool
	// Extra holds fields the relay does not interpret, keyed by wire name.
	Extra map[string][]byte
}

// Typing is an ephemeral typing-state change inside a conversation.
type Typing struct {
	ConversationID string
	UserID         string
	IsTyping       bool
}

// CallKind is the media kind a call was started with.
type CallKind string

const (
	CallAudio CallKind = "audio"
	CallVideo CallKind = "video"
)

// CallSignal is a signaling envelope addressed to one user.
// Signal is never interpreted; it is forwarded byte-for-byte.
type CallSignal struct {
	From           string
	Target         string
	Signal         []byte
	ConversationID string
	CallType       CallKind
}

package core

import "time"

// Route stamps msg as delivered and fans it out to every member of the
// conversation, sender included. The sender additionally receives a delivery
// ack. The message ID is opaque: it is neither checked nor deduplicated. Fan-out to one conversation is serialized by the room lock, so members
// observe messages in the order Route was called.
func (h *Hub) Route(sender *Client, conversationID string, msg Message) error {
	if conversationID == "" {
		return coreError(ErrCodeBadRequest, "conversationId is required")
	}

	if msg.ConversationID == "" {
		msg.ConversationID = conversationID
	}
	if msg.SenderID == "" {
		msg.SenderID = sender.User()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	msg.Status = StatusDelivered

	reached := h.rooms.Broadcast(conversationID, &Event{Kind: EventMessage, Message: msg}, nil)

	sender.Push(&Event{
		Kind:    EventMessageAck,
		Message: Message{ID: msg.ID, ConversationID: conversationID, Status: StatusDelivered},
	})

	h.log.Debug().
		Str("client_id", sender.ID).
		Str("conversation_id", conversationID).
		Str("message_id", msg.ID).
		Int("reached", reached).
		Msg("message routed")
	return nil
}

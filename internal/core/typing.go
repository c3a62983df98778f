package core

// RelayTyping forwards a typing change to the other members of the conversation.
// The emitting connection never receives its own event.
func (h *Hub) RelayTyping(sender *Client, t Typing) error {
	if t.ConversationID == "" {
		return coreError(ErrCodeBadRequest, "conversationId is required")
	}
	if t.UserID == "" {
		t.UserID = sender.User()
	}
	if t.UserID == "" {
		return coreError(ErrCodeBadRequest, "userId is required")
	}

	h.rooms.Broadcast(t.ConversationID, &Event{Kind: EventTyping, Typing: t}, sender)
	return nil
}

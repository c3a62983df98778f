package core

// announce pushes a presence change to every live connection, registered or not.
// Callers hold h.presence so the last announcement matches the registry.
func (h *Hub) announce(user string, status PresenceStatus) int {
	ev := &Event{Kind: EventPresence, User: user, Presence: status}

	reached := 0
	for _, c := range h.registry.Connections() {
		if c.Push(ev) {
			reached++
		}
	}

	h.log.Debug().
		Str("user_id", user).
		Str("status", string(status)).
		Int("reached", reached).
		Msg("presence announced")
	return reached
}

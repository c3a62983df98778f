package core

// Initiate rings the target user with the caller's signal. When the target is
// not registered, only the caller is told the call was unreachable.
func (h *Hub) Initiate(caller *Client, sig CallSignal) error {
	if sig.Target == "" {
		return coreError(ErrCodeBadRequest, "userToCall is required")
	}
	if sig.From == "" {
		sig.From = caller.User()
	}
	if sig.From == "" {
		return coreError(ErrCodeBadRequest, "from is required")
	}

	h.deliverCall(caller, CommandCallInitiate, sig.Target, &Event{
		Kind: EventCallIncoming,
		Call: &CallEvent{
			From:           sig.From,
			Signal:         sig.Signal,
			ConversationID: sig.ConversationID,
			CallType:       sig.CallType,
		},
	})
	return nil
}

// Accept sends the callee's answer back to the original caller.
func (h *Hub) Accept(callee *Client, sig CallSignal) error {
	if sig.Target == "" {
		return coreError(ErrCodeBadRequest, "to is required")
	}

	h.deliverCall(callee, CommandCallAccept, sig.Target, &Event{
		Kind: EventCallAccepted,
		Call: &CallEvent{From: callee.User(), Signal: sig.Signal},
	})
	return nil
}

// End tells the other side of a call that it is over.
func (h *Hub) End(c *Client, sig CallSignal) error {
	if sig.Target == "" {
		return coreError(ErrCodeBadRequest, "to is required")
	}

	h.deliverCall(c, CommandCallEnd, sig.Target, &Event{
		Kind: EventCallEnded,
		Call: &CallEvent{From: c.User()},
	})
	return nil
}

// deliverCall resolves target through the registry and pushes ev to that single
// connection. Signals are never broadcast.
func (h *Hub) deliverCall(sender *Client, action CommandKind, target string, ev *Event) {
	logEv := h.log.Debug().
		Str("client_id", sender.ID).
		Str("action", action.String()).
		Str("target_user_id", target)

	conn, ok := h.registry.Lookup(target)
	if !ok || !conn.Alive() {
		logEv.Bool("reachable", false).Msg("call signal not delivered")
		sender.Push(&Event{
			Kind: EventCallUnreachable,
			Call: &CallEvent{Target: target, Action: action},
		})
		return
	}

	conn.Push(ev)
	logEv.Bool("reachable", true).Msg("call signal delivered")
}

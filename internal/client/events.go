package client

import "encoding/json"

// Lifecycle events dispatched by the client itself rather than the relay.
const (
	EventConnect    = "connect"
	EventDisconnect = "disconnect"
	// EventError carries a relay error envelope as a proto.Error payload.
	EventError = "error"
)

// Handler receives the raw data of one relay event.
type Handler func(data json.RawMessage)

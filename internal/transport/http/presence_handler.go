package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vovakirdan/convo-relay/internal/core"
	"github.com/vovakirdan/convo-relay/internal/proto"
)

// PresenceHandlers serves read-only presence snapshots.
type PresenceHandlers struct {
	hub *core.Hub
}

// NewPresenceHandlers creates presence handlers backed by the hub registry.
func NewPresenceHandlers(hub *core.Hub) *PresenceHandlers {
	return &PresenceHandlers{hub: hub}
}

// Online lists the users that currently hold a connection.
// GET /api/online
func (h *PresenceHandlers) Online(c *gin.Context) {
	c.JSON(http.StatusOK, proto.OnlineUsers{Users: h.hub.Online()})
}

package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/trishit-guin/ayutrace-backend-sub000/internal/herb/sse"
)

// SSEHeartbeat keepalive interval for idle streams
const SSEHeartbeat = 30 * time.Second

// SSEHandler streams supply chain events to connected clients
type SSEHandler struct {
	hub    *sse.Hub
	logger *zap.Logger
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(hub *sse.Hub, logger *zap.Logger) *SSEHandler {
	return &SSEHandler{hub: hub, logger: logger}
}

// Stream handles the SSE endpoint. Non-admin clients only receive events
// whose source or destination is their own organization.
// GET /api/v1/events/stream?token=xxx
func (h *SSEHandler) Stream(c *gin.Context) {
	userID := GetUserID(c)
	p := GetPrincipal(c)
	clientID := fmt.Sprintf("%s_%d", userID, time.Now().UnixNano())

	client := &sse.Client{
		ID:      clientID,
		UserID:  userID,
		OrgID:   p.OrgID,
		AllOrgs: p.IsPlatformAdmin(),
		Events:  make(chan sse.Event, 64),
	}
	h.hub.Register(client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Writer.WriteString("event: connected\ndata: {\"client_id\":\"" + clientID + "\"}\n\n")
	c.Writer.Flush()

	heartbeat := time.NewTicker(SSEHeartbeat)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			h.hub.Unregister(clientID)
			return
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			if _, err := c.Writer.WriteString(fmt.Sprintf("event: %s\ndata: %s\n\n", event.EventType, event.Data)); err != nil {
				h.logger.Debug("sse write failed", zap.String("client_id", clientID), zap.Error(err))
				h.hub.Unregister(clientID)
				return
			}
			c.Writer.Flush()
		case <-heartbeat.C:
			c.Writer.WriteString(": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}

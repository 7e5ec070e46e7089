package handler

import (
	"errors"
	"net/http"
	"randomchat/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The engine carries no cookies; credentials travel in the URL or header.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the request and streams the session over it.
// Inbound frames are message submissions.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	id, token := h.credentials(c)
	if !h.Hub.Owns(id, token) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already replied to the client.
		h.Log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	var client chathub.Client = chathub.NewWebSocketClient(id, token, conn, h.Hub, h.Log)
	if err := client.Run(c.Request.Context()); err != nil && !errors.Is(err, chathub.ErrSessionGone) {
		h.Log.Debug("websocket stream ended", zap.Error(err))
	}
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts the chat, metrics and health endpoints on r.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	chat := r.Group("/rchat", NoCache())
	{
		chat.GET("/session", h.Session)
		chat.POST("/session", h.Session)
		chat.POST("/new", h.NewSession)
		chat.POST("/send", h.Send)
		chat.GET("/stream", h.Stream)
	}
	r.GET("/ws", h.ServeWebSocket)
}

// NewRouter builds a gin engine with recovery, request logging and all routes.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(h.Log))
	h.RegisterRoutes(r)
	return r
}

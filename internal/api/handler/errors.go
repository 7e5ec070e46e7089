package handler

import (
	"errors"
	"net/http"
	"randomchat/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// abortWithError maps engine errors onto HTTP statuses.
func (h *Handler) abortWithError(c *gin.Context, err error) {
	var verr *chathub.ValidationError
	switch {
	case errors.Is(err, chathub.ErrInvalidSession):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Error()})
	case errors.Is(err, chathub.ErrSessionGone):
		c.AbortWithStatusJSON(http.StatusGone, gin.H{"error": "session gone"})
	default:
		h.Log.Error("request failed", zap.Error(err), zap.String("path", c.FullPath()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

package handler

import (
	"errors"
	"net/http"
	"randomchat/backend/internal/chathub"
	"randomchat/backend/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MessageView is one chat line as rendered for clients.
type MessageView struct {
	Time   string             `json:"time"`
	Sender models.SenderRole  `json:"sender"`
	Kind   models.MessageKind `json:"kind"`
	Text   string             `json:"text"`
}

// SessionResponse is returned by the session endpoints.
type SessionResponse struct {
	ID         string              `json:"id"`
	Token      string              `json:"token"`
	Credential string              `json:"credential"`
	Created    bool                `json:"created"`
	State      models.SessionState `json:"state"`
	Messages   []MessageView       `json:"messages"`
}

// SendResponse is returned by the send endpoint.
type SendResponse struct {
	Messages  []MessageView `json:"messages"`
	Delivered bool          `json:"delivered"`
}

type sendRequest struct {
	Text string `json:"text"`
}

func views(msgs []models.Message) []MessageView {
	out := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, MessageView{Time: m.Clock(), Sender: m.Sender, Kind: m.Kind, Text: m.Text})
	}
	return out
}

// Session resumes the caller's session or starts a new one. An optional "m"
// parameter is sent as a message first.
func (h *Handler) Session(c *gin.Context) {
	h.begin(c, false)
}

// NewSession drops the caller's session and starts a fresh search.
func (h *Handler) NewSession(c *gin.Context) {
	h.begin(c, true)
}

func (h *Handler) begin(c *gin.Context, replace bool) {
	id, token := h.credentials(c)
	res, err := h.Hub.BeginOrResume(c.Request.Context(), chathub.BeginRequest{
		ID:       id,
		Token:    token,
		Message:  param(c, "m"),
		ClientIP: c.ClientIP(),
		Replace:  replace,
	})
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	credential, err := h.Signer.Issue(res.ID, res.Token)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		ID:         res.ID,
		Token:      res.Token,
		Credential: credential,
		Created:    res.Created,
		State:      res.Session.State,
		Messages:   views(res.Session.Messages),
	})
}

// Send relays one message. The text comes from a JSON body {"text": ...} or
// the "m" form field.
func (h *Handler) Send(c *gin.Context) {
	id, token := h.credentials(c)
	if id == "" {
		h.abortWithError(c, chathub.ErrInvalidSession)
		return
	}

	var text string
	if c.ContentType() == gin.MIMEJSON {
		var req sendRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		text = req.Text
	} else {
		text = param(c, "m")
	}

	res, err := h.Hub.Submit(c.Request.Context(), id, token, text)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, SendResponse{Messages: views(res.Messages), Delivered: res.Delivered})
}

// Stream serves the live update stream as server-sent events.
func (h *Handler) Stream(c *gin.Context) {
	id, token := h.credentials(c)
	if !h.Hub.Owns(id, token) {
		h.abortWithError(c, chathub.ErrInvalidSession)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	var client chathub.Client = chathub.NewEventStreamClient(id, token, c.Writer, h.Hub)
	err := client.Run(c.Request.Context())
	switch {
	case err == nil:
	case !c.Writer.Written():
		h.abortWithError(c, err)
	case !errors.Is(err, chathub.ErrSessionGone):
		h.Log.Debug("event stream ended", zap.Error(err))
	}
}

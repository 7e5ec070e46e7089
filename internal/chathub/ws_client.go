package chathub

import (
	"context"
	"encoding/json"
	"errors"
	"randomchat/backend/internal/logger"
	"randomchat/backend/internal/models"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBuffer     = 64
)

// Submission is an inbound websocket frame.
type Submission struct {
	Text string `json:"text"`
}

// WebSocketClient streams a session over a websocket. Inbound frames are
// message submissions; outbound frames are JSON fragments.
type WebSocketClient struct {
	ID    string
	Token string
	Conn  *websocket.Conn
	Hub   Streamer
	Log   *zap.Logger
	Send  chan models.Fragment
}

// NewWebSocketClient wraps an upgraded connection.
func NewWebSocketClient(id, token string, conn *websocket.Conn, hub Streamer, log *zap.Logger) *WebSocketClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &WebSocketClient{
		ID:    id,
		Token: token,
		Conn:  conn,
		Hub:   hub,
		Log:   log.With(logger.ShortID(id)),
		Send:  make(chan models.Fragment, sendBuffer),
	}
}

func (c *WebSocketClient) SessionID() string { return c.ID }

// Run starts the pumps and blocks until the stream ends.
func (c *WebSocketClient) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump(ctx)
		cancel()
	}()
	go func() {
		c.readPump(ctx)
		cancel()
	}()

	err := c.Hub.Stream(ctx, c.ID, c.Token, c.enqueue(ctx))
	cancel()
	<-done
	_ = c.Conn.Close()
	return err
}

func (c *WebSocketClient) enqueue(ctx context.Context) func(models.Fragment) error {
	return func(f models.Fragment) error {
		select {
		case c.Send <- f:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *WebSocketClient) readPump(ctx context.Context) {
	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Log.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		var sub Submission
		if err := json.Unmarshal(data, &sub); err != nil {
			c.Log.Debug("undecodable frame", zap.Error(err))
			c.reject(ctx, "malformed frame")
			continue
		}

		res, err := c.Hub.Submit(ctx, c.ID, c.Token, sub.Text)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				c.reject(ctx, verr.Error())
				continue
			}
			c.Log.Info("submission refused", zap.Error(err))
			return
		}
		// The sender's own lines come back synchronously.
		for _, m := range res.Messages {
			if c.enqueue(ctx)(models.MessageFragment(m)) != nil {
				return
			}
		}
	}
}

func (c *WebSocketClient) reject(ctx context.Context, reason string) {
	_ = c.enqueue(ctx)(models.Fragment{Kind: models.FragmentError, Text: reason})
}

func (c *WebSocketClient) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.flush()
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case f := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteJSON(f); err != nil {
				c.Log.Debug("websocket write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// flush writes whatever is still queued once the stream has ended.
func (c *WebSocketClient) flush() {
	for {
		select {
		case f := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteJSON(f); err != nil {
				return
			}
		default:
			return
		}
	}
}

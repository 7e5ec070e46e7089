package chathub

import (
	"context"
	"randomchat/backend/internal/models"
)

// Client is one live connection of a session, whatever the transport
// (websocket, server-sent events).
type Client interface {
	// SessionID returns the session the connection streams.
	SessionID() string
	// Run pumps fragments to the peer until ctx is cancelled or the
	// connection ends.
	Run(ctx context.Context) error
}

// Streamer is the part of the engine a Client depends on.
type Streamer interface {
	Stream(ctx context.Context, id, token string, emit func(models.Fragment) error) error
	Submit(ctx context.Context, id, token, text string) (SendResult, error)
}

var (
	_ Streamer = (*ManagerService)(nil)
	_ Client   = (*WebSocketClient)(nil)
	_ Client   = (*EventStreamClient)(nil)
)

package chathub

import (
	"context"
	"errors"
	"io"
	"net/http"
	"randomchat/backend/internal/models"
	"strconv"

	"github.com/gin-contrib/sse"
)

// ErrStreamingUnsupported is returned when the response writer cannot flush.
var ErrStreamingUnsupported = errors.New("streaming unsupported by response writer")

// EventStreamClient streams a session as server-sent events, one event per
// fragment. The event name is the fragment kind.
type EventStreamClient struct {
	ID    string
	Token string
	Hub   Streamer
	W     io.Writer
}

// NewEventStreamClient wraps a response writer that supports flushing.
func NewEventStreamClient(id, token string, w io.Writer, hub Streamer) *EventStreamClient {
	return &EventStreamClient{ID: id, Token: token, Hub: hub, W: w}
}

func (c *EventStreamClient) SessionID() string { return c.ID }

// Run blocks until the stream ends.
func (c *EventStreamClient) Run(ctx context.Context) error {
	flusher, ok := c.W.(http.Flusher)
	if !ok {
		return ErrStreamingUnsupported
	}
	return c.Hub.Stream(ctx, c.ID, c.Token, func(f models.Fragment) error {
		ev := sse.Event{Event: string(f.Kind), Data: f}
		if f.Kind == models.FragmentKeepalive {
			ev.Id = strconv.FormatUint(f.Seq, 10)
		}
		if err := sse.Encode(c.W, ev); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
}

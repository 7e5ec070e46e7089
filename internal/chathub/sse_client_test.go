package chathub_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"randomchat/backend/internal/chathub"
	"randomchat/backend/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEventStreamClient_WritesOneEventPerFragment(t *testing.T) {
	hub := new(MockStreamer)
	hub.On("Stream", mock.Anything, "sess-1", "tok-1", mock.Anything).
		Run(emitOnly(
			models.Fragment{Kind: models.FragmentLog},
			models.Fragment{Kind: models.FragmentKeepalive, Seq: 7},
		)).
		Return(nil)
	w := httptest.NewRecorder()

	err := chathub.NewEventStreamClient("sess-1", "tok-1", w, hub).Run(context.Background())

	require.NoError(t, err)
	body := w.Body.String()
	assert.Contains(t, body, "event:log\n")
	assert.Contains(t, body, "event:keepalive\n")
	assert.Contains(t, body, "id:7\n")
	assert.True(t, w.Flushed)
}

func TestEventStreamClient_NeedsFlusher(t *testing.T) {
	hub := new(MockStreamer)

	err := chathub.NewEventStreamClient("sess-1", "tok-1", &bytes.Buffer{}, hub).Run(context.Background())

	assert.ErrorIs(t, err, chathub.ErrStreamingUnsupported)
	hub.AssertNotCalled(t, "Stream", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEventStreamClient_IsAClient(t *testing.T) {
	var c chathub.Client = chathub.NewEventStreamClient("sess-1", "tok-1", httptest.NewRecorder(), new(MockStreamer))

	assert.Equal(t, "sess-1", c.SessionID())
}

package chathub_test

import (
	"context"
	"randomchat/backend/internal/chathub"
	"randomchat/backend/internal/clock"
	"randomchat/backend/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

const tick = time.Second

func newEngine(t *testing.T) (*chathub.ManagerService, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(t0)
	m := chathub.NewManagerService(chathub.Options{
		Clock:  clk,
		Logger: zaptest.NewLogger(t),
	})
	return m, clk
}

func join(t *testing.T, m *chathub.ManagerService, ip string) chathub.BeginResult {
	t.Helper()
	res, err := m.BeginOrResume(context.Background(), chathub.BeginRequest{ClientIP: ip})
	require.NoError(t, err)
	require.True(t, res.Created)
	return res
}

func session(t *testing.T, m *chathub.ManagerService, id string) models.Session {
	t.Helper()
	s, ok := m.Storage().Get(id)
	require.True(t, ok, "session %s should exist", id)
	return s
}

func lastText(s models.Session) string {
	if len(s.Messages) == 0 {
		return ""
	}
	return s.Messages[len(s.Messages)-1].Text
}

func texts(s models.Session) []string {
	out := make([]string, 0, len(s.Messages))
	for _, m := range s.Messages {
		out = append(out, m.Text)
	}
	return out
}

// recorder collects the fragments of one running stream.
type recorder struct {
	frags chan models.Fragment
	done  chan error
	stop  context.CancelFunc
}

func startStream(t *testing.T, m *chathub.ManagerService, clk *clock.Fake, id, token string) (*recorder, models.Fragment) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	r := &recorder{
		frags: make(chan models.Fragment, 256),
		done:  make(chan error, 1),
		stop:  cancel,
	}
	go func() {
		r.done <- m.Stream(ctx, id, token, func(f models.Fragment) error {
			r.frags <- f
			return nil
		})
	}()

	first := r.next(t)
	require.Equal(t, models.FragmentLog, first.Kind)
	require.True(t, clk.WaitForTickers(1, time.Second), "stream ticker not created")
	return r, first
}

func (r *recorder) next(t *testing.T) models.Fragment {
	t.Helper()
	select {
	case f := <-r.frags:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a fragment")
		return models.Fragment{}
	}
}

// await advances the clock one tick at a time until a fragment matches.
func (r *recorder) await(t *testing.T, clk *clock.Fake, match func(models.Fragment) bool) models.Fragment {
	t.Helper()
	deadline := time.After(2 * time.Second)
	clk.Advance(tick)
	for {
		select {
		case f := <-r.frags:
			if match(f) {
				return f
			}
			if f.Kind == models.FragmentKeepalive {
				clk.Advance(tick)
			}
		case <-deadline:
			t.Fatal("timed out waiting for a matching fragment")
			return models.Fragment{}
		}
	}
}

func (r *recorder) ended(t *testing.T) error {
	t.Helper()
	select {
	case err := <-r.done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end")
		return nil
	}
}

func isMessage(text string) func(models.Fragment) bool {
	return func(f models.Fragment) bool {
		return f.Kind == models.FragmentMessage && f.Message != nil && f.Message.Text == text
	}
}

package chathub_test

import (
	"context"
	"randomchat/backend/internal/chathub"
	"randomchat/backend/internal/models"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	foundText = "A random was found, say hi!"
	leftText  = "The random left."
)

func TestBeginOrResume_FreshClientWaitsWithSearchingNotice(t *testing.T) {
	m, _ := newEngine(t)

	res := join(t, m, "10.0.0.1")

	assert.NotEmpty(t, res.ID)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, models.StateSearching, res.Session.State)
	require.Len(t, res.Session.Messages, 1)
	notice := res.Session.Messages[0]
	assert.Equal(t, models.KindSearching, notice.Kind)
	assert.Equal(t, models.SenderSystem, notice.Sender)
	assert.Equal(t, "Searching for a random. 1 chatters in the last hour.", notice.Text)
	assert.True(t, m.Storage().IsPending(res.ID))
}

func TestBeginOrResume_SecondClientPairsWithWaitingOne(t *testing.T) {
	m, clk := newEngine(t)
	x := join(t, m, "10.0.0.1")
	xs, _ := startStream(t, m, clk, x.ID, x.Token)

	y := join(t, m, "10.0.0.2")

	assert.Equal(t, models.StatePaired, y.Session.State)
	assert.Equal(t, x.ID, y.Session.PartnerID)
	assert.Equal(t, foundText, lastText(y.Session))

	xSess := session(t, m, x.ID)
	assert.Equal(t, y.ID, xSess.PartnerID)
	assert.Equal(t, foundText, lastText(xSess))
	assert.Zero(t, m.Storage().QueueLen())

	// The waiting side learns about the pairing from its next drain.
	f := xs.await(t, clk, isMessage(foundText))
	assert.Equal(t, models.SenderSystem, f.Message.Sender)
}

func TestBeginOrResume_WrongTokenMintsNewSession(t *testing.T) {
	m, _ := newEngine(t)
	x := join(t, m, "10.0.0.1")
	_, err := m.Submit(context.Background(), x.ID, x.Token, "private")
	require.NoError(t, err)

	res, err := m.BeginOrResume(context.Background(), chathub.BeginRequest{
		ID:       x.ID,
		Token:    "not-the-token",
		ClientIP: "10.0.0.9",
	})
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.NotEqual(t, x.ID, res.ID)
	for _, msg := range res.Session.Messages {
		assert.NotEqual(t, "private", msg.Text)
	}
	// The original session keeps its own log.
	assert.Contains(t, texts(session(t, m, x.ID)), "private")
}

func TestBeginOrResume_ResumeReturnsLogAndRelaysMessage(t *testing.T) {
	m, _ := newEngine(t)
	x := join(t, m, "10.0.0.1")
	y := join(t, m, "10.0.0.2")

	res, err := m.BeginOrResume(context.Background(), chathub.BeginRequest{
		ID:      x.ID,
		Token:   x.Token,
		Message: "hello",
	})
	require.NoError(t, err)

	assert.False(t, res.Created)
	assert.Equal(t, x.ID, res.ID)
	assert.Equal(t, "hello", lastText(res.Session))
	assert.Equal(t, "hello", lastText(session(t, m, y.ID)))
}

func TestBeginOrResume_InvalidMessageIsDropped(t *testing.T) {
	m, _ := newEngine(t)
	x := join(t, m, "10.0.0.1")
	before := session(t, m, x.ID)

	res, err := m.BeginOrResume(context.Background(), chathub.BeginRequest{
		ID:      x.ID,
		Token:   x.Token,
		Message: strings.Repeat("a", 1000),
	})
	require.NoError(t, err)

	assert.Equal(t, before.Messages, res.Session.Messages)
}

func TestBeginOrResume_ReplaceDiscardsOldSessionAndPartnerNotices(t *testing.T) {
	m, _ := newEngine(t)
	x := join(t, m, "10.0.0.1")
	y := join(t, m, "10.0.0.2")

	res, err := m.BeginOrResume(context.Background(), chathub.BeginRequest{
		ID:      y.ID,
		Token:   y.Token,
		Replace: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.NotEqual(t, y.ID, res.ID)
	_, ok := m.Storage().Get(y.ID)
	assert.False(t, ok)

	// x sees why its messages stopped reaching anyone.
	sent, err := m.Submit(context.Background(), x.ID, x.Token, "still there?")
	require.NoError(t, err)
	require.Len(t, sent.Messages, 2)
	assert.Equal(t, leftText, sent.Messages[0].Text)
	assert.Equal(t, "still there?", sent.Messages[1].Text)
	assert.False(t, sent.Delivered)

	xs := session(t, m, x.ID)
	assert.Equal(t, models.StateAbandoned, xs.State)
	assert.Empty(t, xs.PartnerID)
}

func TestBeginOrResume_ExpiredSearcherIsRequeued(t *testing.T) {
	m, clk := newEngine(t)
	x := join(t, m, "10.0.0.1")

	clk.Set(t0.Add(6 * time.Minute))
	y := join(t, m, "10.0.0.2")
	require.Equal(t, models.StateSearching, y.Session.State, "stale entry must not be paired")
	require.False(t, m.Storage().IsPending(x.ID))

	res, err := m.BeginOrResume(context.Background(), chathub.BeginRequest{ID: x.ID, Token: x.Token})
	require.NoError(t, err)

	assert.Equal(t, models.StatePaired, res.Session.State)
	assert.Equal(t, y.ID, res.Session.PartnerID)
	assert.Equal(t, foundText, lastText(res.Session))
}

func TestBeginOrResume_ConcurrentJoinsPairEveryone(t *testing.T) {
	m, _ := newEngine(t)
	const n = 100

	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := m.BeginOrResume(context.Background(), chathub.BeginRequest{ClientIP: "10.0.0.1"})
			assert.NoError(t, err)
			ids[i] = res.ID
		}(i)
	}
	wg.Wait()

	assert.Zero(t, m.Storage().QueueLen())
	for _, id := range ids {
		s := session(t, m, id)
		require.True(t, s.IsPaired(), "session %s left unpaired", id)
		assert.NotEqual(t, id, s.PartnerID)
		p := session(t, m, s.PartnerID)
		assert.Equal(t, id, p.PartnerID, "pairing must be mutual")
		assert.Equal(t, 1, count(texts(s), foundText))
	}
	assertMutual(t, m)
}

func TestStream_RejectsWrongToken(t *testing.T) {
	m, _ := newEngine(t)
	x := join(t, m, "10.0.0.1")

	err := m.Stream(context.Background(), x.ID, "bad", func(models.Fragment) error { return nil })

	assert.ErrorIs(t, err, chathub.ErrInvalidSession)
}

func TestStream_SendsLogThenKeepalives(t *testing.T) {
	m, clk := newEngine(t)
	x := join(t, m, "10.0.0.1")

	xs, first := startStream(t, m, clk, x.ID, x.Token)
	require.Len(t, first.Messages, 1)

	var seqs []uint64
	for len(seqs) < 2 {
		f := xs.await(t, clk, func(f models.Fragment) bool { return f.Kind == models.FragmentKeepalive })
		seqs = append(seqs, f.Seq)
	}
	assert.Less(t, seqs[0], seqs[1])

	xs.stop()
	assert.NoError(t, xs.ended(t))
}

func TestStream_RefreshesSearchingNotice(t *testing.T) {
	m, clk := newEngine(t)
	x := join(t, m, "10.0.0.1")
	xs, _ := startStream(t, m, clk, x.ID, x.Token)

	f := xs.await(t, clk, func(f models.Fragment) bool { return f.Kind == models.FragmentSearching })

	require.NotNil(t, f.Message)
	assert.Regexp(t, `^Searching for a random\.{2,3} 1 chatters in the last hour\.$`, f.Message.Text)
	// The notice is rewritten in place rather than appended.
	s := session(t, m, x.ID)
	require.Len(t, s.Messages, 1)
	assert.Equal(t, f.Message.Text, s.Messages[0].Text)
}

func TestStream_DotsStopGrowingAtThree(t *testing.T) {
	m, clk := newEngine(t)
	x := join(t, m, "10.0.0.1")
	xs, _ := startStream(t, m, clk, x.ID, x.Token)

	clk.Set(t0.Add(time.Minute))
	f := xs.await(t, clk, func(f models.Fragment) bool { return f.Kind == models.FragmentSearching })

	assert.Equal(t, "Searching for a random... 1 chatters in the last hour.", f.Message.Text)
}

func TestStream_NewConnectionSupersedesOld(t *testing.T) {
	m, clk := newEngine(t)
	x := join(t, m, "10.0.0.1")

	first, _ := startStream(t, m, clk, x.ID, x.Token)
	second, _ := startStream(t, m, clk, x.ID, x.Token)

	clk.Advance(tick)
	assert.NoError(t, first.ended(t))

	second.await(t, clk, func(f models.Fragment) bool { return f.Kind == models.FragmentKeepalive })
}

func TestStream_EndsWhenSessionRemoved(t *testing.T) {
	m, clk := newEngine(t)
	x := join(t, m, "10.0.0.1")
	xs, _ := startStream(t, m, clk, x.ID, x.Token)

	_, err := m.BeginOrResume(context.Background(), chathub.BeginRequest{ID: x.ID, Token: x.Token, Replace: true})
	require.NoError(t, err)
	clk.Advance(tick)

	assert.ErrorIs(t, xs.ended(t), chathub.ErrSessionGone)
}

func TestStream_NotifiesPartnerLeft(t *testing.T) {
	m, clk := newEngine(t)
	x := join(t, m, "10.0.0.1")
	y := join(t, m, "10.0.0.2")
	xs, _ := startStream(t, m, clk, x.ID, x.Token)

	m.Storage().Delete(y.ID)

	xs.await(t, clk, isMessage(leftText))
	assert.Equal(t, models.StateAbandoned, session(t, m, x.ID).State)
}

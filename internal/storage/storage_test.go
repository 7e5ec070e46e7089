package storage_test

import (
	"errors"
	"randomchat/backend/internal/models"
	"randomchat/backend/internal/storage"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestCreateAndGet(t *testing.T) {
	// Arrange
	s := storage.NewStorageService()

	// Act
	created, err := s.Create("sid", "tok", t0)
	require.NoError(t, err)

	// Assert
	got, ok := s.Get("sid")
	require.True(t, ok)
	assert.Equal(t, created, got)
	assert.Equal(t, models.StateSearching, got.State)
	assert.Equal(t, "tok", got.AuthToken)
	assert.Equal(t, t0, got.SearchStartedAt)
	assert.Equal(t, 1, s.Len())

	_, err = s.Create("sid", "other", t0)
	assert.ErrorIs(t, err, storage.ErrSessionExists)
}

func TestGet_MissingIsNotAnError(t *testing.T) {
	s := storage.NewStorageService()
	_, ok := s.Get("nope")
	assert.False(t, ok)
	assert.ErrorIs(t, s.WithLock("nope", func(*models.Session) error { return nil }), storage.ErrSessionNotFound)
}

func TestGet_ReturnsIndependentSnapshot(t *testing.T) {
	s := storage.NewStorageService()
	_, err := s.Create("sid", "tok", t0)
	require.NoError(t, err)

	require.NoError(t, s.WithLock("sid", func(sess *models.Session) error {
		sess.Messages = append(sess.Messages, models.NewMessage(t0, models.SenderSelf, models.KindText, "one"))
		return nil
	}))

	snap, _ := s.Get("sid")
	snap.Messages[0].Text = "mutated"

	again, _ := s.Get("sid")
	assert.Equal(t, "one", again.Messages[0].Text)
}

func TestWithLock_PropagatesErrorAndReleasesOnPanic(t *testing.T) {
	s := storage.NewStorageService()
	_, err := s.Create("sid", "tok", t0)
	require.NoError(t, err)

	boom := errors.New("boom")
	assert.ErrorIs(t, s.WithLock("sid", func(*models.Session) error { return boom }), boom)

	assert.Panics(t, func() {
		_ = s.WithLock("sid", func(*models.Session) error { panic("fn panicked") })
	})

	// The lock must be free again.
	done := make(chan struct{})
	go func() {
		_ = s.WithLock("sid", func(*models.Session) error { return nil })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("session lock was not released after panic")
	}
}

func TestWithLock_SerializesMutations(t *testing.T) {
	s := storage.NewStorageService()
	_, err := s.Create("sid", "tok", t0)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.WithLock("sid", func(sess *models.Session) error {
				sess.Messages = append(sess.Messages, models.Message{Text: "x"})
				return nil
			})
		}()
	}
	wg.Wait()

	got, _ := s.Get("sid")
	assert.Len(t, got.Messages, 100)
}

func TestDelete(t *testing.T) {
	s := storage.NewStorageService()
	_, err := s.Create("sid", "tok", t0)
	require.NoError(t, err)
	require.True(t, s.Enqueue("sid", t0))

	assert.True(t, s.Delete("sid"))
	assert.False(t, s.Delete("sid"))

	_, ok := s.Get("sid")
	assert.False(t, ok)
	assert.False(t, s.IsPending("sid"), "deleting a session drops its pending entry")
	assert.Zero(t, s.Len())
}

func TestDeleteIf(t *testing.T) {
	s := storage.NewStorageService()
	_, err := s.Create("sid", "tok", t0)
	require.NoError(t, err)

	_, removed := s.DeleteIf("sid", func(sess *models.Session) bool { return sess.State == models.StatePaired })
	assert.False(t, removed)

	final, removed := s.DeleteIf("sid", func(sess *models.Session) bool { return sess.State == models.StateSearching })
	assert.True(t, removed)
	assert.Equal(t, "sid", final.ID)
	assert.Empty(t, s.IDs())
}

func TestIDs(t *testing.T) {
	s := storage.NewStorageService()
	for _, id := range []string{"a", "b", "c"} {
		_, err := s.Create(id, "tok", t0)
		require.NoError(t, err)
	}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, s.IDs())
}

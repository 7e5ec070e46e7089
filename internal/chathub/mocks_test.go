package chathub_test

import (
	"context"
	"randomchat/backend/internal/chathub"
	"randomchat/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockStreamer struct {
	mock.Mock
}

func (m *MockStreamer) Stream(ctx context.Context, id, token string, emit func(models.Fragment) error) error {
	args := m.Called(ctx, id, token, emit)
	return args.Error(0)
}

func (m *MockStreamer) Submit(ctx context.Context, id, token, text string) (chathub.SendResult, error) {
	args := m.Called(ctx, id, token, text)
	return args.Get(0).(chathub.SendResult), args.Error(1)
}

// emitThenWait makes Stream emit fragments and block until its context ends.
func emitThenWait(frags ...models.Fragment) func(mock.Arguments) {
	return func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		emit := args.Get(3).(func(models.Fragment) error)
		for _, f := range frags {
			if emit(f) != nil {
				return
			}
		}
		<-ctx.Done()
	}
}

// emitOnly makes Stream emit fragments and return.
func emitOnly(frags ...models.Fragment) func(mock.Arguments) {
	return func(args mock.Arguments) {
		emit := args.Get(3).(func(models.Fragment) error)
		for _, f := range frags {
			if emit(f) != nil {
				return
			}
		}
	}
}

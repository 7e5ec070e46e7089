package chathub

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSession covers unknown ids and wrong or missing auth tokens alike.
	ErrInvalidSession = errors.New("invalid session")
	// ErrSessionGone is returned when a session disappeared mid-operation.
	ErrSessionGone = errors.New("session gone")

	ErrEmptyMessage   = errors.New("message is empty")
	ErrMessageTooLong = errors.New("message too long")
)

// ValidationError rejects a message before any session state is touched.
type ValidationError struct {
	Err    error
	Length int
	Limit  int
}

func (e *ValidationError) Error() string {
	if errors.Is(e.Err, ErrMessageTooLong) {
		return fmt.Sprintf("%v: %d characters, limit is %d", e.Err, e.Length, e.Limit)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

package domain

import (
	"errors"
	"fmt"
)

// Session and transport errors
var (
	ErrNotReady        = errors.New("name and emoji are required to join")
	ErrNotActive       = errors.New("session is not active")
	ErrAlreadyActive   = errors.New("session is already active")
	ErrUnknownEmoji    = errors.New("unknown emoji")
	ErrOutOfBounds     = errors.New("position is outside the canvas")
	ErrClosed          = errors.New("connection closed")
	ErrSendBufferFull  = errors.New("send buffer full")
	ErrMissingEmoji    = errors.New("reaction has no emoji")
	ErrMissingUserName = errors.New("reaction has no user name")
	ErrMessageTooLarge = errors.New("message too large")
)

// ConnectionError reports a failure to open or close the connection to the
// reaction service.
type ConnectionError struct {
	Op       string
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// MalformedMessageError is an inbound payload that is not a valid reaction.
type MalformedMessageError struct {
	Payload []byte
	Err     error
}

func (e *MalformedMessageError) Error() string {
	return fmt.Sprintf("malformed message (%d bytes): %v", len(e.Payload), e.Err)
}

func (e *MalformedMessageError) Unwrap() error {
	return e.Err
}

// SendError reports a reaction that was not delivered to the connection.
type SendError struct {
	Reaction Reaction
	Err      error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send reaction at (%g, %g): %v", e.Reaction.X, e.Reaction.Y, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

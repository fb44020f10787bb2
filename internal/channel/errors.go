package channel

import (
	"errors"
	"fmt"
)

// Errors reported through the channel's error handler.
var (
	// ErrNotConnected is reported when Send is called while the transport
	// is not open. The message is dropped, never queued.
	ErrNotConnected = errors.New("channel not connected, message dropped")

	// ErrReconnectExhausted is terminal: the maximum reconnect attempt
	// count was reached without a successful connection.
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")
)

// TransportError wraps a failure to establish or keep the connection.
type TransportError struct {
	Op  string // "dial", "read", "write"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

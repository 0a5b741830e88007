package client

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConnector is returned when a request is built without an
	// associable connector.
	ErrInvalidConnector = errors.New("request has no connector")

	// ErrInvalidResponseFactory is returned when a configured response
	// factory is nil or produces no response.
	ErrInvalidResponseFactory = errors.New("invalid response factory")

	// ErrNoMockMatch is returned when a mock client is attached but no
	// registered mock response matches the pending request.
	ErrNoMockMatch = errors.New("no mock response matched")

	// ErrNoSender is returned when dispatch is attempted with neither a
	// sender nor a mock client configured.
	ErrNoSender = errors.New("no sender configured")
)

// TransportError wraps an underlying transport or I/O failure. The original
// error is preserved and reachable through errors.Unwrap.
type TransportError struct {
	Request *PendingRequest
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

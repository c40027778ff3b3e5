package routeros

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
)

// ErrorKind categorises protocol-level failures.
type ErrorKind int

const (
	// KindFraming indicates a malformed length prefix or truncated frame.
	// Fatal to the current session; never retried within it.
	KindFraming ErrorKind = iota
	// KindConnection indicates a socket error or read/write timeout. The
	// caller may reconnect and retry the logical operation.
	KindConnection
	// KindAuthExhausted indicates every credential fallback was rejected.
	KindAuthExhausted
	// KindCommand indicates the device replied with a trap.
	KindCommand
)

// String returns a human-readable name for the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindFraming:
		return "framing error"
	case KindConnection:
		return "connection lost"
	case KindAuthExhausted:
		return "authentication exhausted"
	case KindCommand:
		return "device command error"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a typed protocol error.
type Error struct {
	Kind    ErrorKind
	Message string
	// Attempted holds the usernames tried before giving up. Only set for
	// KindAuthExhausted. Passwords are never recorded.
	Attempted []string
	Err       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Kind == KindAuthExhausted && len(e.Attempted) > 0:
		return fmt.Sprintf("%s: tried %s", e.Kind, strings.Join(e.Attempted, ", "))
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewFramingError creates a framing error.
func NewFramingError(message string, err error) *Error {
	return &Error{Kind: KindFraming, Message: message, Err: err}
}

// NewConnectionError creates a connection-lost error.
func NewConnectionError(message string, err error) *Error {
	return &Error{Kind: KindConnection, Message: message, Err: err}
}

// NewCommandError creates a device command (trap) error.
func NewCommandError(message string) *Error {
	return &Error{Kind: KindCommand, Message: message}
}

func newAuthExhausted(attempted []string) *Error {
	return &Error{
		Kind:      KindAuthExhausted,
		Message:   "all login attempts rejected",
		Attempted: attempted,
	}
}

// IsFraming reports whether err is a framing error.
func IsFraming(err error) bool {
	return hasKind(err, KindFraming)
}

// IsConnectionLost reports whether err is a connection-level failure.
func IsConnectionLost(err error) bool {
	return hasKind(err, KindConnection)
}

// IsAuthExhausted reports whether err means every credential fallback failed.
func IsAuthExhausted(err error) bool {
	return hasKind(err, KindAuthExhausted)
}

// IsCommandError reports whether err is a trap reply from the device.
func IsCommandError(err error) bool {
	return hasKind(err, KindCommand)
}

// CommandMessage returns the trap message carried by a command error, or ""
// if err is not one.
func CommandMessage(err error) string {
	var perr *Error
	if errors.As(err, &perr) && perr.Kind == KindCommand {
		return perr.Message
	}
	return ""
}

func hasKind(err error, kind ErrorKind) bool {
	var perr *Error
	return errors.As(err, &perr) && perr.Kind == kind
}

// classifyReadError maps a raw read failure to the taxonomy: deadline
// expiries are connection losses (the peer may still be alive but the session
// is unusable), a stream that ends mid-frame is a framing error.
func classifyReadError(op string, err error) *Error {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return NewConnectionError(op+" timed out", err)
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return NewConnectionError(op+" timed out", err)
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return NewFramingError(op+": stream truncated", err)
	}
	return NewConnectionError(op+" failed", err)
}

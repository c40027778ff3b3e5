package hotspot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mwrona/guestgate/internal/routeros"
)

// ErrorKind categorises gateway-level failures.
type ErrorKind int

const (
	// KindDevice is a trap the caller cannot act on beyond reporting.
	KindDevice ErrorKind = iota
	// KindConflict is a duplicate-name trap on create. The caller may
	// regenerate credentials and retry.
	KindConflict
	// KindNotFound means the target entry is absent. Benign on removal.
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindDevice:
		return "device error"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not found"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a typed gateway error wrapping the underlying protocol error
// when one exists.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsConflict reports whether err is a duplicate-name outcome.
func IsConflict(err error) bool {
	return hasKind(err, KindConflict)
}

// IsNotFound reports whether err is a missing-entry outcome.
func IsNotFound(err error) bool {
	return hasKind(err, KindNotFound)
}

func hasKind(err error, kind ErrorKind) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.Kind == kind
}

func notFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Trap message fragments the firmware uses for the outcomes callers handle
// explicitly. Matched as substrings because the exact wording shifts between
// versions.
var (
	conflictFragments = []string{"already have", "already exists"}
	notFoundFragments = []string{"no such item", "not found"}
)

// classifyTrap maps a command (trap) error onto the gateway taxonomy. Errors
// that are not traps pass through unchanged so connection and framing
// failures keep their kinds.
func classifyTrap(err error, op string) error {
	if err == nil || !routeros.IsCommandError(err) {
		return err
	}

	msg := routeros.CommandMessage(err)
	lower := strings.ToLower(msg)
	for _, frag := range conflictFragments {
		if strings.Contains(lower, frag) {
			return &Error{Kind: KindConflict, Message: msg, Err: err}
		}
	}
	for _, frag := range notFoundFragments {
		if strings.Contains(lower, frag) {
			return &Error{Kind: KindNotFound, Message: msg, Err: err}
		}
	}
	return &Error{Kind: KindDevice, Message: op + ": " + msg, Err: err}
}

package provision

import (
	"errors"

	"github.com/mwrona/guestgate/internal/hotspot"
	"github.com/mwrona/guestgate/internal/store"
)

// ValidationError rejects a request before any device call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Message
}

// IsValidation reports whether err is a request-validation failure.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsConflict reports whether err is a duplicate-credential outcome, whether
// the device or the store's unique constraint caught it. The caller may
// regenerate credentials and retry.
func IsConflict(err error) bool {
	return hotspot.IsConflict(err) || errors.Is(err, store.ErrDuplicateUsername)
}

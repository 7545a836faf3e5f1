package shipments

import (
	"errors"
	"fmt"

	"github.com/openfulfil/go-courier-sync/internal/status"
)

// ErrNotFound is returned when no shipment record exists for the given key.
var ErrNotFound = errors.New("shipment not found")

// ErrStaleEvent marks an event older than the stored state; it is skipped,
// not failed.
var ErrStaleEvent = errors.New("event older than stored state")

// PreconditionFailedError is returned when the status classifier rejects the
// requested action against the current state. It is always resolved locally,
// before any network call.
type PreconditionFailedError struct {
	Action string
	State  status.State
}

func (e *PreconditionFailedError) Error() string {
	return fmt.Sprintf("action %s not allowed in state %s", e.Action, e.State)
}

// ValidationError is a caller-supplied parameter failing a local check, e.g.
// a defer date outside the allowed window. No network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

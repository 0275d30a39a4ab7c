package artifact

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when no artifact is stored under the requested id.
	ErrNotFound = errors.New("artifact: not found")

	// ErrInvalidID is returned for identifiers that are empty or not a plain name.
	ErrInvalidID = errors.New("artifact: invalid artifact id")

	// ErrCorrupt is returned when a stored artifact decodes to inconsistent data.
	ErrCorrupt = errors.New("artifact: corrupt artifact")
)

// IOError reports a failure reading or writing an artifact.
type IOError struct {
	Op       string // "save" or "load"
	Kind     Kind
	ID       string
	Location string
	Err      error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("artifact: %s %s %q (%s): %v", e.Op, e.Kind, e.ID, e.Location, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

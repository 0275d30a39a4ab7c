package features

import (
	"errors"
	"fmt"
)

var (
	// ErrCountMismatch is returned when a record's atom count disagrees with
	// the number of feature rows it carries for that type.
	ErrCountMismatch = errors.New("features: atom count does not match feature rows")

	// ErrDimensionMismatch is returned when records disagree on the feature
	// width of an atom type.
	ErrDimensionMismatch = errors.New("features: feature dimension mismatch")
)

// MissingFieldError reports a record without the requested feature tag.
type MissingFieldError struct {
	RecordID string
	Tag      string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("features: record %q has no feature field %q", e.RecordID, e.Tag)
}

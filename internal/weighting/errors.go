package weighting

import (
	"errors"
	"fmt"

	"github.com/tensorplex-labs/gdfprep/internal/features"
)

var (
	ErrMissingScale  = errors.New("weighting: no scale factor for atom type")
	ErrModifierShape = errors.New("weighting: modifier changed the weight matrix shape")
	ErrModifierIndex = errors.New("weighting: modifier changed the source index column")
	ErrDegenerate    = errors.New("weighting: weight column mean is zero or not finite")
)

// ModifierError reports a modifier failure for one atom type.
type ModifierError struct {
	AtomType features.AtomType
	Err      error
}

func (e *ModifierError) Error() string {
	return fmt.Sprintf("weighting: modifier failed for atom type %s: %v", e.AtomType, e.Err)
}

func (e *ModifierError) Unwrap() error {
	return e.Err
}

package weighting

import (
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/gdfprep/internal/features"
)

const (
	WeightCol = 0 // column holding the sample weight
	IndexCol  = 1 // column holding the source record position
)

// Weights maps each atom type to an n x 2 matrix of (weight, source index),
// row aligned with the aggregated features of that type.
type Weights map[features.AtomType]*mat.Dense

// Modifier transforms a weight matrix before mean normalization. It must
// return a matrix of the same shape and leave IndexCol untouched.
type Modifier func(w *mat.Dense) (*mat.Dense, error)

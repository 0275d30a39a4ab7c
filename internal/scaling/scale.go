// Package scaling derives per atom type center/halfrange normalization factors.
package scaling

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/gdfprep/internal/features"
)

// MinHalfRange is the smallest halfrange kept as is. Narrower columns are
// treated as constant and get a halfrange of 1.
const MinHalfRange = 1e-15

var ErrDimensionMismatch = errors.New("scaling: feature dimension mismatch")

// Factor maps raw features to roughly [-1, 1] via (x - Center) / HalfRange.
type Factor struct {
	Center    []float64
	HalfRange []float64
}

type Factors map[features.AtomType]Factor

// Identity returns the pass-through factor of width dim.
func Identity(dim int) Factor {
	f := Factor{
		Center:    make([]float64, dim),
		HalfRange: make([]float64, dim),
	}
	floats.AddConst(1, f.HalfRange)
	return f
}

// Compute derives a Factor for every atom type. Types without samples get
// the identity factor of width dims[t].
func Compute(set *features.Set, atomTypes []features.AtomType, dims map[features.AtomType]int) (Factors, error) {
	out := make(Factors, len(atomTypes))
	for _, t := range atomTypes {
		if set.Empty(t) {
			out[t] = Identity(dims[t])
			log.Debug().Str("atomType", string(t)).Msg("no samples, using identity scale")
			continue
		}

		m := set.Features[t]
		if _, cols := m.Dims(); cols != dims[t] {
			return nil, fmt.Errorf("%w: atom type %s has %d features, expected %d", ErrDimensionMismatch, t, cols, dims[t])
		}
		out[t] = ComputeFactor(m)
	}
	return out, nil
}

// ComputeFactor returns the midrange center and halfrange of every column of m.
func ComputeFactor(m *mat.Dense) Factor {
	_, cols := m.Dims()
	f := Factor{
		Center:    make([]float64, cols),
		HalfRange: make([]float64, cols),
	}

	for j := range cols {
		col := mat.Col(nil, j, m)
		min := floats.Min(col)
		max := floats.Max(col)

		f.Center[j] = 0.5 * (max + min)
		f.HalfRange[j] = 0.5 * (max - min)
		if f.HalfRange[j] < MinHalfRange {
			f.HalfRange[j] = 1
		}
	}
	return f
}

// Apply returns (m - Center) / HalfRange with the factor broadcast over rows.
func (f Factor) Apply(m *mat.Dense) (*mat.Dense, error) {
	rows, cols := m.Dims()
	if cols != len(f.Center) || cols != len(f.HalfRange) {
		return nil, fmt.Errorf("%w: matrix has %d columns, factor has %d", ErrDimensionMismatch, cols, len(f.Center))
	}

	scaled := mat.DenseCopyOf(m)
	for i := range rows {
		row := scaled.RawRowView(i)
		floats.Sub(row, f.Center)
		floats.Div(row, f.HalfRange)
	}
	return scaled, nil
}

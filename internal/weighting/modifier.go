package weighting

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

type SigmoidParams struct {
	B float64 // steepness
	C float64 // offset
}

// ApplyModifiedSigmoid returns w / (1 + exp(-b*w + c)) for every weight.
// Small weights are pushed towards zero while large ones pass through.
func ApplyModifiedSigmoid(weights []float64, b, c float64) []float64 {
	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = w / (1.0 + math.Exp(-b*w+c))
	}
	return out
}

// ModifiedSigmoid returns a Modifier applying ApplyModifiedSigmoid to the
// weight column. The input matrix is not modified.
func ModifiedSigmoid(params SigmoidParams) Modifier {
	return func(w *mat.Dense) (*mat.Dense, error) {
		out := mat.DenseCopyOf(w)
		out.SetCol(WeightCol, ApplyModifiedSigmoid(mat.Col(nil, WeightCol, w), params.B, params.C))
		return out, nil
	}
}

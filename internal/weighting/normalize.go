package weighting

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MeanNormalize scales arr in place so its mean is 1.
func MeanNormalize(arr []float64) error {
	mean := stat.Mean(arr, nil)
	if mean == 0 || math.IsNaN(mean) || math.IsInf(mean, 0) {
		return ErrDegenerate
	}

	floats.Scale(1.0/mean, arr)
	return nil
}

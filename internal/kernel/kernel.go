// Package kernel evaluates Gaussian kernel density sums over feature matrices.
//
// For a matrix X with n rows the density of row i is
//
//	sum over j of exp(-|X_i - X_j|^2 / (2 sigma^2))
//
// with the sum running over every row, i itself included, so each entry is
// at least 1. All implementations in this package compute the exact sum and
// accumulate each row in ascending j order, which makes their results
// bit-identical.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var ErrInvalidBandwidth = errors.New("kernel: bandwidth must be positive and finite")

// Kernel computes one raw density value per row of x.
type Kernel interface {
	Density(ctx context.Context, x *mat.Dense, sigma float64) ([]float64, error)
}

// Exact is the reference single goroutine implementation.
type Exact struct{}

func (Exact) Density(ctx context.Context, x *mat.Dense, sigma float64) ([]float64, error) {
	coeff, err := coefficient(sigma)
	if err != nil {
		return nil, err
	}
	if x == nil || x.IsEmpty() {
		return []float64{}, nil
	}

	raw := x.RawMatrix()
	out := make([]float64, raw.Rows)
	for i := range raw.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		xi := rowOf(raw.Data, raw.Stride, raw.Cols, i)
		var sum float64
		for j := range raw.Rows {
			sum += math.Exp(coeff * sqDist(xi, rowOf(raw.Data, raw.Stride, raw.Cols, j)))
		}
		out[i] = sum
	}
	return out, nil
}

// coefficient returns -1/(2 sigma^2).
func coefficient(sigma float64) (float64, error) {
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidBandwidth, sigma)
	}
	return -1 / (2 * sigma * sigma), nil
}

func rowOf(data []float64, stride, cols, i int) []float64 {
	return data[i*stride : i*stride+cols]
}

func sqDist(a, b []float64) float64 {
	var d float64
	for k, av := range a {
		diff := av - b[k]
		d += diff * diff
	}
	return d
}

package weighting

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// Summary describes the distribution of one atom type's weights.
type Summary struct {
	Samples int
	Min     float64
	Max     float64
	Mean    float64
	Median  float64
	P05     float64
	P95     float64
}

// Summarize computes distribution statistics of the weight column of w.
func Summarize(w *mat.Dense) (Summary, error) {
	if w == nil || w.IsEmpty() {
		return Summary{}, nil
	}
	data := stats.Float64Data(mat.Col(nil, WeightCol, w))

	var (
		s   = Summary{Samples: data.Len()}
		err error
	)
	if s.Min, err = stats.Min(data); err != nil {
		return s, fmt.Errorf("min: %w", err)
	}
	if s.Max, err = stats.Max(data); err != nil {
		return s, fmt.Errorf("max: %w", err)
	}
	if s.Mean, err = stats.Mean(data); err != nil {
		return s, fmt.Errorf("mean: %w", err)
	}
	if s.Median, err = stats.Median(data); err != nil {
		return s, fmt.Errorf("median: %w", err)
	}
	if s.P05, err = stats.PercentileNearestRank(data, 5); err != nil {
		return s, fmt.Errorf("percentile: %w", err)
	}
	if s.P95, err = stats.PercentileNearestRank(data, 95); err != nil {
		return s, fmt.Errorf("percentile: %w", err)
	}
	return s, nil
}

// Package weighting computes GDF (Gaussian density function) sample weights:
// per atom type kernel density estimates over normalized features, turned
// into mean-one loss weights.
package weighting

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/gdfprep/internal/features"
	"github.com/tensorplex-labs/gdfprep/internal/kernel"
	"github.com/tensorplex-labs/gdfprep/internal/scaling"
	"github.com/tensorplex-labs/gdfprep/internal/utils/logger"
)

type Engine struct {
	Sigma       float64
	Modifier    Modifier
	Kernel      kernel.Kernel
	Concurrency int // atom types weighted at once, unlimited when <= 0
}

type EngineOption func(*Engine)

func WithSigma(sigma float64) EngineOption {
	return func(e *Engine) {
		e.Sigma = sigma
	}
}

func WithModifier(modifier Modifier) EngineOption {
	return func(e *Engine) {
		e.Modifier = modifier
	}
}

func WithKernel(k kernel.Kernel) EngineOption {
	return func(e *Engine) {
		if k != nil {
			e.Kernel = k
		}
	}
}

func WithConcurrency(n int) EngineOption {
	return func(e *Engine) {
		e.Concurrency = n
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		Sigma:  DefaultSigma,
		Kernel: kernel.Blocked{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Compute returns the weights of every atom type with at least one sample.
// Types without samples are left out of the result.
func (e *Engine) Compute(ctx context.Context, set *features.Set, scales scaling.Factors, atomTypes []features.AtomType) (Weights, error) {
	logger.Sugar().Infow("Computing GDF weights", "sigma", e.Sigma, "modifier", e.Modifier != nil, "atomTypes", atomTypes)

	results := make([]*mat.Dense, len(atomTypes))

	g, gctx := errgroup.WithContext(ctx)
	if e.Concurrency > 0 {
		g.SetLimit(e.Concurrency)
	}
	for i, t := range atomTypes {
		if set.Empty(t) {
			log.Debug().Str("atomType", string(t)).Msg("no samples, skipping weights")
			continue
		}
		g.Go(func() error {
			w, err := e.computeType(gctx, t, set.Features[t], set.Indices[t], scales)
			if err != nil {
				return err
			}
			results[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(Weights, len(atomTypes))
	for i, t := range atomTypes {
		if results[i] != nil {
			out[t] = results[i]
		}
	}
	return out, nil
}

func (e *Engine) computeType(ctx context.Context, t features.AtomType, feats *mat.Dense, indices []int, scales scaling.Factors) (*mat.Dense, error) {
	startTime := time.Now()

	factor, ok := scales[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingScale, t)
	}
	scaled, err := factor.Apply(feats)
	if err != nil {
		return nil, fmt.Errorf("atom type %s: %w", t, err)
	}

	raw, err := e.Kernel.Density(ctx, scaled, e.Sigma)
	if err != nil {
		return nil, fmt.Errorf("atom type %s: density: %w", t, err)
	}
	if len(raw) != len(indices) {
		return nil, fmt.Errorf("atom type %s: %w: %d samples, %d indices", t, features.ErrCountMismatch, len(raw), len(indices))
	}

	n := len(raw)
	idx := make([]float64, n)
	for i, v := range indices {
		idx[i] = float64(v)
	}
	w := mat.NewDense(n, 2, nil)
	w.SetCol(WeightCol, raw)
	w.SetCol(IndexCol, idx)

	if e.Modifier != nil {
		if w, err = e.applyModifier(t, w, idx); err != nil {
			return nil, err
		}
	}

	col := mat.Col(nil, WeightCol, w)
	if err := MeanNormalize(col); err != nil {
		if e.Modifier != nil {
			return nil, &ModifierError{AtomType: t, Err: err}
		}
		return nil, fmt.Errorf("atom type %s: %w", t, err)
	}
	w.SetCol(WeightCol, col)

	log.Info().Str("atomType", string(t)).Int("samples", n).Dur("elapsed", time.Since(startTime)).Msg("GDF weights computed")
	return w, nil
}

func (e *Engine) applyModifier(t features.AtomType, w *mat.Dense, idx []float64) (*mat.Dense, error) {
	rows, cols := w.Dims()

	out, err := e.Modifier(w)
	if err != nil {
		return nil, &ModifierError{AtomType: t, Err: err}
	}
	if out == nil || out.IsEmpty() {
		return nil, &ModifierError{AtomType: t, Err: fmt.Errorf("%w: got empty matrix", ErrModifierShape)}
	}
	if r, c := out.Dims(); r != rows || c != cols {
		return nil, &ModifierError{AtomType: t, Err: fmt.Errorf("%w: got %dx%d, want %dx%d", ErrModifierShape, r, c, rows, cols)}
	}
	if !floats.Equal(mat.Col(nil, IndexCol, out), idx) {
		return nil, &ModifierError{AtomType: t, Err: ErrModifierIndex}
	}
	return out, nil
}

// Package preprocess wires feature aggregation, scaling and density
// weighting into a single preprocessing run.
package preprocess

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/gdfprep/internal/features"
	"github.com/tensorplex-labs/gdfprep/internal/scaling"
	"github.com/tensorplex-labs/gdfprep/internal/weighting"
)

const (
	DefaultScaleArtifact  = "scale_factor"
	DefaultWeightArtifact = "atomic_weights"
)

type Pipeline struct {
	Loader features.Loader
	Store  ArtifactStore

	ScaleArtifact  string // id the scale factors are saved to and loaded from
	WeightArtifact string // id computed weights are saved to
}

type PipelineOption func(*Pipeline)

func WithScaleArtifact(id string) PipelineOption {
	return func(p *Pipeline) {
		p.ScaleArtifact = id
	}
}

func WithWeightArtifact(id string) PipelineOption {
	return func(p *Pipeline) {
		p.WeightArtifact = id
	}
}

func NewPipeline(loader features.Loader, store ArtifactStore, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		Loader:         loader,
		Store:          store,
		ScaleArtifact:  DefaultScaleArtifact,
		WeightArtifact: DefaultWeightArtifact,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Preprocess aggregates the requested records and returns their scale
// factors and, depending on req.Weights, their atomic weights.
func (p *Pipeline) Preprocess(ctx context.Context, req Request) (*Result, error) {
	startTime := time.Now()

	set, err := features.Aggregate(ctx, p.Loader, req.RecordIDs, req.AtomTypes, req.FeatureTag)
	if err != nil {
		return nil, fmt.Errorf("aggregate features: %w", err)
	}

	scales, err := p.resolveScale(ctx, set, req)
	if err != nil {
		return nil, err
	}

	weights, err := p.resolveWeights(ctx, set, scales, req)
	if err != nil {
		return nil, err
	}

	log.Info().Int("records", len(req.RecordIDs)).Int("atomTypes", len(req.AtomTypes)).
		Bool("weights", weights != nil).Dur("elapsed", time.Since(startTime)).Msg("Preprocessing finished")
	return &Result{Scales: scales, Weights: weights}, nil
}

func (p *Pipeline) resolveScale(ctx context.Context, set *features.Set, req Request) (scaling.Factors, error) {
	if !req.ComputeScale {
		scales, err := p.Store.LoadScale(ctx, p.ScaleArtifact)
		if err != nil {
			return nil, fmt.Errorf("load scale factors: %w", err)
		}
		log.Info().Str("artifact", p.ScaleArtifact).Msg("Loaded scale factors")
		return scales, nil
	}

	scales, err := scaling.Compute(set, req.AtomTypes, req.Dims)
	if err != nil {
		return nil, fmt.Errorf("compute scale factors: %w", err)
	}
	if err := p.Store.SaveScale(ctx, p.ScaleArtifact, scales); err != nil {
		return nil, fmt.Errorf("save scale factors: %w", err)
	}
	return scales, nil
}

func (p *Pipeline) resolveWeights(ctx context.Context, set *features.Set, scales scaling.Factors, req Request) (weighting.Weights, error) {
	switch src := req.Weights.(type) {
	case nil, NoWeights:
		return nil, nil

	case LoadWeights:
		weights, err := p.Store.LoadWeights(ctx, src.ArtifactID)
		if err != nil {
			return nil, fmt.Errorf("load atomic weights: %w", err)
		}
		log.Info().Str("artifact", src.ArtifactID).Msg("Loaded atomic weights")
		return weights, nil

	case ComputeWeights:
		opts := []weighting.EngineOption{
			weighting.WithModifier(src.Modifier),
			weighting.WithKernel(src.Kernel),
			weighting.WithConcurrency(src.Concurrency),
		}
		if src.Sigma != 0 {
			opts = append(opts, weighting.WithSigma(src.Sigma))
		}

		weights, err := weighting.NewEngine(opts...).Compute(ctx, set, scales, req.AtomTypes)
		if err != nil {
			return nil, fmt.Errorf("compute atomic weights: %w", err)
		}
		if err := p.Store.SaveWeights(ctx, p.WeightArtifact, weights); err != nil {
			return nil, fmt.Errorf("save atomic weights: %w", err)
		}
		return weights, nil

	default:
		return nil, fmt.Errorf("unsupported weight source %T", src)
	}
}

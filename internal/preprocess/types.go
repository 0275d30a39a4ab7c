package preprocess

import (
	"context"

	"github.com/tensorplex-labs/gdfprep/internal/features"
	"github.com/tensorplex-labs/gdfprep/internal/kernel"
	"github.com/tensorplex-labs/gdfprep/internal/scaling"
	"github.com/tensorplex-labs/gdfprep/internal/weighting"
)

// ArtifactStore persists scale and weight artifacts under caller chosen ids.
type ArtifactStore interface {
	SaveScale(ctx context.Context, id string, f scaling.Factors) error
	LoadScale(ctx context.Context, id string) (scaling.Factors, error)
	SaveWeights(ctx context.Context, id string, w weighting.Weights) error
	LoadWeights(ctx context.Context, id string) (weighting.Weights, error)
}

// WeightSource selects how atomic weights are obtained: NoWeights,
// ComputeWeights or LoadWeights.
type WeightSource interface {
	weightSource()
}

// NoWeights skips atomic weights entirely.
type NoWeights struct{}

// ComputeWeights runs the density weighting engine. Zero values fall back to
// the engine defaults.
type ComputeWeights struct {
	Sigma       float64
	Modifier    weighting.Modifier
	Kernel      kernel.Kernel
	Concurrency int
}

// LoadWeights reads a previously persisted weight artifact.
type LoadWeights struct {
	ArtifactID string
}

func (NoWeights) weightSource()      {}
func (ComputeWeights) weightSource() {}
func (LoadWeights) weightSource()    {}

type Request struct {
	RecordIDs    []string
	AtomTypes    []features.AtomType
	FeatureTag   string
	Dims         map[features.AtomType]int // feature width per atom type
	ComputeScale bool                      // compute and persist, or load the scale artifact
	Weights      WeightSource              // nil behaves as NoWeights
}

type Result struct {
	Scales  scaling.Factors
	Weights weighting.Weights // nil when no weights were requested
}

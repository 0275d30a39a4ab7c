package artifact

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/gdfprep/internal/features"
	"github.com/tensorplex-labs/gdfprep/internal/scaling"
	"github.com/tensorplex-labs/gdfprep/internal/weighting"
)

// FormatVersion tags every encoded artifact.
const FormatVersion = "gdf.v1"

type scaleDocument struct {
	Version string                `json:"version"`
	Types   map[string]scaleEntry `json:"types"`
}

type scaleEntry struct {
	Center    []float64 `json:"center"`
	HalfRange []float64 `json:"halfrange"`
}

type weightDocument struct {
	Version string                 `json:"version"`
	Types   map[string]weightEntry `json:"types"`
}

type weightEntry struct {
	Weights []float64 `json:"weights"`
	Indices []int     `json:"indices"`
}

func newScaleDocument(f scaling.Factors) scaleDocument {
	doc := scaleDocument{Version: FormatVersion, Types: make(map[string]scaleEntry, len(f))}
	for t, factor := range f {
		doc.Types[string(t)] = scaleEntry{Center: factor.Center, HalfRange: factor.HalfRange}
	}
	return doc
}

func (d scaleDocument) factors() (scaling.Factors, error) {
	if d.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrCorrupt, d.Version)
	}
	out := make(scaling.Factors, len(d.Types))
	for t, e := range d.Types {
		if len(e.Center) != len(e.HalfRange) {
			return nil, fmt.Errorf("%w: atom type %s has %d centers and %d halfranges", ErrCorrupt, t, len(e.Center), len(e.HalfRange))
		}
		out[features.AtomType(t)] = scaling.Factor{Center: e.Center, HalfRange: e.HalfRange}
	}
	return out, nil
}

func newWeightDocument(w weighting.Weights) weightDocument {
	doc := weightDocument{Version: FormatVersion, Types: make(map[string]weightEntry, len(w))}
	for t, m := range w {
		entry := weightEntry{Weights: []float64{}, Indices: []int{}}
		if m != nil && !m.IsEmpty() {
			entry.Weights = mat.Col(nil, weighting.WeightCol, m)
			idx := mat.Col(nil, weighting.IndexCol, m)
			entry.Indices = make([]int, len(idx))
			for i, v := range idx {
				entry.Indices[i] = int(math.Round(v))
			}
		}
		doc.Types[string(t)] = entry
	}
	return doc
}

func (d weightDocument) weights() (weighting.Weights, error) {
	if d.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrCorrupt, d.Version)
	}
	out := make(weighting.Weights, len(d.Types))
	for t, e := range d.Types {
		if len(e.Weights) != len(e.Indices) {
			return nil, fmt.Errorf("%w: atom type %s has %d weights and %d indices", ErrCorrupt, t, len(e.Weights), len(e.Indices))
		}
		if len(e.Weights) == 0 {
			out[features.AtomType(t)] = &mat.Dense{}
			continue
		}
		m := mat.NewDense(len(e.Weights), 2, nil)
		m.SetCol(weighting.WeightCol, e.Weights)
		for i, v := range e.Indices {
			m.Set(i, weighting.IndexCol, float64(v))
		}
		out[features.AtomType(t)] = m
	}
	return out, nil
}

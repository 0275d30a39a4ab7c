package features

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// AtomType labels a chemical species.
type AtomType string

// Record holds the features extracted from one simulated structure.
type Record struct {
	ID     string
	Fields map[string]map[AtomType]*mat.Dense // feature tag -> atom type -> atoms x features
	Counts map[AtomType]int                   // atoms of each type in the structure
}

// Loader resolves a record identifier to its Record.
type Loader interface {
	Load(ctx context.Context, id string) (*Record, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, id string) (*Record, error)

func (f LoaderFunc) Load(ctx context.Context, id string) (*Record, error) {
	return f(ctx, id)
}

// Set is the per atom type concatenation of every record's features.
// Row i of Features[t] came from record Indices[t][i].
type Set struct {
	Features map[AtomType]*mat.Dense
	Indices  map[AtomType][]int
}

// Len returns the number of samples aggregated for t.
func (s *Set) Len(t AtomType) int {
	return len(s.Indices[t])
}

// Empty reports whether no sample of type t was aggregated.
func (s *Set) Empty(t AtomType) bool {
	m, ok := s.Features[t]
	return !ok || m == nil || m.IsEmpty()
}

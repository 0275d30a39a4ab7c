package main

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/gdfprep/internal/features"
	"github.com/tensorplex-labs/gdfprep/internal/weighting"
)

func parseAtomTypes(s string) ([]features.AtomType, error) {
	var out []features.AtomType
	seen := map[features.AtomType]bool{}
	for _, part := range strings.Split(s, ",") {
		t := features.AtomType(strings.TrimSpace(part))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no atom types given, use -types")
	}
	return out, nil
}

// parseDims accepts either a single width shared by every type or
// comma separated type=width pairs covering every type.
func parseDims(s string, atomTypes []features.AtomType) (map[features.AtomType]int, error) {
	dims := make(map[features.AtomType]int, len(atomTypes))
	s = strings.TrimSpace(s)

	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return nil, fmt.Errorf("feature width must be positive, got %d", n)
		}
		for _, t := range atomTypes {
			dims[t] = n
		}
		return dims, nil
	}

	for _, part := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, fmt.Errorf("invalid dims entry %q, expected type=width", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid feature width %q for atom type %s", value, name)
		}
		dims[features.AtomType(strings.TrimSpace(name))] = n
	}
	for _, t := range atomTypes {
		if _, ok := dims[t]; !ok {
			return nil, fmt.Errorf("no feature width for atom type %s", t)
		}
	}
	return dims, nil
}

func weightColumn(w *mat.Dense) []float64 {
	return mat.Col(nil, weighting.WeightCol, w)
}

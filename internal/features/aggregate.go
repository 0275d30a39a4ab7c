// Package features merges per-structure feature records into per atom type
// feature matrices.
package features

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

type accumulator struct {
	data    []float64
	indices []int
	rows    int
	cols    int
}

// Aggregate loads every record in ids order and concatenates, per atom type,
// the feature matrices stored under tag. Atom types absent from every record
// yield an empty matrix and an empty index slice.
func Aggregate(ctx context.Context, loader Loader, ids []string, atomTypes []AtomType, tag string) (*Set, error) {
	startTime := time.Now()

	acc := make(map[AtomType]*accumulator, len(atomTypes))
	for _, t := range atomTypes {
		acc[t] = &accumulator{}
	}

	for pos, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := loader.Load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load record %q: %w", id, err)
		}

		field, ok := rec.Fields[tag]
		if !ok {
			return nil, &MissingFieldError{RecordID: id, Tag: tag}
		}

		for _, t := range atomTypes {
			m, present := field[t]
			if !present {
				continue
			}
			if err := acc[t].add(m, rec.Counts[t], pos); err != nil {
				return nil, fmt.Errorf("record %q, atom type %s: %w", id, t, err)
			}
		}
		log.Trace().Str("record", id).Int("position", pos).Msg("record aggregated")
	}

	set := &Set{
		Features: make(map[AtomType]*mat.Dense, len(atomTypes)),
		Indices:  make(map[AtomType][]int, len(atomTypes)),
	}
	for _, t := range atomTypes {
		a := acc[t]
		if a.rows == 0 {
			set.Features[t] = &mat.Dense{}
			set.Indices[t] = []int{}
			continue
		}
		set.Features[t] = mat.NewDense(a.rows, a.cols, a.data)
		set.Indices[t] = a.indices
		log.Debug().Str("atomType", string(t)).Int("samples", a.rows).Int("features", a.cols).Msg("aggregated features")
	}

	log.Info().Int("records", len(ids)).Dur("elapsed", time.Since(startTime)).Msgf("Aggregated features for tag %s", tag)
	return set, nil
}

func (a *accumulator) add(m *mat.Dense, count, pos int) error {
	rows, cols := 0, 0
	if m != nil && !m.IsEmpty() {
		rows, cols = m.Dims()
	}
	if rows != count {
		return fmt.Errorf("%w: count %d, rows %d", ErrCountMismatch, count, rows)
	}
	if rows == 0 {
		return nil
	}
	if a.rows > 0 && cols != a.cols {
		return fmt.Errorf("%w: expected %d columns, got %d", ErrDimensionMismatch, a.cols, cols)
	}

	a.cols = cols
	for i := range rows {
		a.data = append(a.data, m.RawRowView(i)...)
		a.indices = append(a.indices, pos)
	}
	a.rows += rows
	return nil
}

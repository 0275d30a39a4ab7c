package features

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func memoryLoader(records map[string]*Record) Loader {
	return LoaderFunc(func(_ context.Context, id string) (*Record, error) {
		rec, ok := records[id]
		if !ok {
			return nil, fmt.Errorf("no record %s", id)
		}
		return rec, nil
	})
}

func twoStructures() map[string]*Record {
	return map[string]*Record{
		"s0": {
			ID: "s0",
			Fields: map[string]map[AtomType]*mat.Dense{
				"x": {"A": mat.NewDense(2, 2, []float64{1, 2, 3, 4})},
			},
			Counts: map[AtomType]int{"A": 2},
		},
		"s1": {
			ID: "s1",
			Fields: map[string]map[AtomType]*mat.Dense{
				"x": {
					"A": mat.NewDense(1, 2, []float64{5, 6}),
					"B": {},
				},
			},
			Counts: map[AtomType]int{"A": 1, "B": 0},
		},
	}
}

func TestAggregateTwoStructures(t *testing.T) {
	set, err := Aggregate(context.Background(), memoryLoader(twoStructures()), []string{"s0", "s1"}, []AtomType{"A", "B"}, "x")
	require.NoError(t, err)

	assert.Equal(t, []int{0, 0, 1}, set.Indices["A"])
	assert.Empty(t, set.Indices["B"])
	assert.True(t, set.Empty("B"))
	assert.False(t, set.Empty("A"))
	assert.Equal(t, 3, set.Len("A"))

	want := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	assert.True(t, mat.Equal(want, set.Features["A"]))
}

func TestAggregateFollowsInputOrder(t *testing.T) {
	set, err := Aggregate(context.Background(), memoryLoader(twoStructures()), []string{"s1", "s0"}, []AtomType{"A"}, "x")
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 1}, set.Indices["A"])
	want := mat.NewDense(3, 2, []float64{5, 6, 1, 2, 3, 4})
	assert.True(t, mat.Equal(want, set.Features["A"]))
}

func TestAggregateAbsentTypeIsEmpty(t *testing.T) {
	set, err := Aggregate(context.Background(), memoryLoader(twoStructures()), []string{"s0", "s1"}, []AtomType{"A", "C"}, "x")
	require.NoError(t, err)

	assert.True(t, set.Empty("C"))
	assert.Equal(t, 0, set.Len("C"))
}

func TestAggregateMissingField(t *testing.T) {
	_, err := Aggregate(context.Background(), memoryLoader(twoStructures()), []string{"s0", "s1"}, []AtomType{"A"}, "dx")

	var mfe *MissingFieldError
	require.True(t, errors.As(err, &mfe))
	assert.Equal(t, "s0", mfe.RecordID)
	assert.Equal(t, "dx", mfe.Tag)
}

func TestAggregateConsistencyErrors(t *testing.T) {
	records := twoStructures()
	records["s1"].Counts["A"] = 4
	_, err := Aggregate(context.Background(), memoryLoader(records), []string{"s0", "s1"}, []AtomType{"A"}, "x")
	assert.ErrorIs(t, err, ErrCountMismatch)

	records = twoStructures()
	records["s1"].Fields["x"]["A"] = mat.NewDense(1, 3, []float64{5, 6, 7})
	_, err = Aggregate(context.Background(), memoryLoader(records), []string{"s0", "s1"}, []AtomType{"A"}, "x")
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestAggregateLoaderError(t *testing.T) {
	_, err := Aggregate(context.Background(), memoryLoader(twoStructures()), []string{"s0", "missing"}, []AtomType{"A"}, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestAggregateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Aggregate(ctx, memoryLoader(twoStructures()), []string{"s0"}, []AtomType{"A"}, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileLoaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	records := twoStructures()

	for i, id := range []string{"s0", "s1"} {
		data, err := EncodeRecord(records[id], i == 1)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, id), data, 0o644))
	}
	listPath := filepath.Join(dir, "records.txt")
	require.NoError(t, os.WriteFile(listPath, []byte("s0\n\n  s1  \n"), 0o644))

	ids, err := ReadRecordList(listPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"s0", "s1"}, ids)

	set, err := Aggregate(context.Background(), FileLoader{Root: dir}, ids, []AtomType{"A", "B"}, "x")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1}, set.Indices["A"])
	assert.True(t, mat.Equal(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6}), set.Features["A"]))
	assert.True(t, set.Empty("B"))
}

func TestReadRecordListMissing(t *testing.T) {
	_, err := ReadRecordList(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

package artifact

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/gdfprep/internal/scaling"
	"github.com/tensorplex-labs/gdfprep/internal/weighting"
)

func sampleScales() scaling.Factors {
	return scaling.Factors{
		"Si": {Center: []float64{0.125, -3.5, 1e-7}, HalfRange: []float64{1, 0.333333333333, 42.75}},
		"O":  scaling.Identity(3),
	}
}

func sampleWeights() weighting.Weights {
	return weighting.Weights{
		"Si": mat.NewDense(3, 2, []float64{
			0.87, 0,
			1.0101, 0,
			1.1199, 2,
		}),
		"O": mat.NewDense(1, 2, []float64{1, 1}),
	}
}

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	sqlite, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "artifacts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Backend{
		"file":   FileBackend{Dir: filepath.Join(t.TempDir(), "out")},
		"sqlite": sqlite,
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, backend := range backends(t) {
		for _, compress := range []bool{false, true} {
			store := NewStore(backend, compress)

			require.NoError(t, store.SaveScale(ctx, "scale_factor", sampleScales()), name)
			scales, err := store.LoadScale(ctx, "scale_factor")
			require.NoError(t, err, name)
			require.Len(t, scales, 2)
			for typ, want := range sampleScales() {
				assert.InDeltaSlice(t, want.Center, scales[typ].Center, 1e-15, "%s %s", name, typ)
				assert.InDeltaSlice(t, want.HalfRange, scales[typ].HalfRange, 1e-15, "%s %s", name, typ)
			}

			require.NoError(t, store.SaveWeights(ctx, "atomic_weights", sampleWeights()), name)
			weights, err := store.LoadWeights(ctx, "atomic_weights")
			require.NoError(t, err, name)
			require.Len(t, weights, 2)
			for typ, want := range sampleWeights() {
				assert.True(t, mat.EqualApprox(want, weights[typ], 1e-15), "%s %s", name, typ)
			}
		}
	}
}

func TestSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	for name, backend := range backends(t) {
		store := NewStore(backend, true)
		require.NoError(t, store.SaveScale(ctx, "scale", sampleScales()))
		require.NoError(t, store.SaveScale(ctx, "scale", scaling.Factors{"H": scaling.Identity(2)}))

		scales, err := store.LoadScale(ctx, "scale")
		require.NoError(t, err, name)
		assert.Equal(t, scaling.Factors{"H": scaling.Identity(2)}, scales, name)
	}
}

func TestLoadMissing(t *testing.T) {
	for name, backend := range backends(t) {
		store := NewStore(backend, false)

		_, err := store.LoadScale(context.Background(), "scale_factor")
		var ioErr *IOError
		require.True(t, errors.As(err, &ioErr), name)
		assert.Equal(t, "load", ioErr.Op)
		assert.Equal(t, KindScale, ioErr.Kind)
		assert.Equal(t, "scale_factor", ioErr.ID)
		assert.NotEmpty(t, ioErr.Location)
		assert.ErrorIs(t, err, ErrNotFound, name)

		_, err = store.LoadWeights(context.Background(), "atomic_weights")
		assert.ErrorIs(t, err, ErrNotFound, name)
	}
}

func TestSQLiteSeparatesKinds(t *testing.T) {
	ctx := context.Background()
	backend, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "a.db"))
	require.NoError(t, err)
	defer backend.Close()

	store := NewStore(backend, false)
	require.NoError(t, store.SaveScale(ctx, "run1", sampleScales()))

	_, err = store.LoadWeights(ctx, "run1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvalidID(t *testing.T) {
	store := NewStore(FileBackend{Dir: t.TempDir()}, false)
	for _, id := range []string{"", ".", "..", "../escape", "a/b"} {
		err := store.SaveScale(context.Background(), id, sampleScales())
		assert.ErrorIs(t, err, ErrInvalidID, "id %q", id)
	}
}

func TestLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(FileBackend{Dir: dir}, false)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage"), []byte("not json"), 0o644))
	_, err := store.LoadScale(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "mismatch"),
		[]byte(`{"version":"gdf.v1","types":{"Si":{"weights":[1,2],"indices":[0]}}}`), 0o644))
	_, err = store.LoadWeights(context.Background(), "mismatch")
	assert.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "old"), []byte(`{"version":"v0","types":{}}`), 0o644))
	_, err = store.LoadScale(context.Background(), "old")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFileBackendLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(FileBackend{Dir: dir}, true)
	require.NoError(t, store.SaveWeights(context.Background(), "atomic_weights", sampleWeights()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "atomic_weights", entries[0].Name())
}

package kernel

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func randomMatrix(rows, cols int, seed uint64) *mat.Dense {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.Float64()*2 - 1
	}
	return mat.NewDense(rows, cols, data)
}

func TestDensityThreeSamples(t *testing.T) {
	x := mat.NewDense(3, 1, []float64{0, 1, 2})
	want := []float64{
		1 + math.Exp(-0.5) + math.Exp(-2),
		math.Exp(-0.5) + 1 + math.Exp(-0.5),
		math.Exp(-2) + math.Exp(-0.5) + 1,
	}

	for name, k := range map[string]Kernel{"exact": Exact{}, "blocked": Blocked{BlockSize: 2}} {
		t.Run(name, func(t *testing.T) {
			got, err := k.Density(context.Background(), x, 1)
			require.NoError(t, err)
			assert.InDeltaSlice(t, want, got, 1e-12)
			assert.Greater(t, got[1], got[0])
			assert.InDelta(t, got[0], got[2], 1e-12)
		})
	}
}

func TestDensitySelfTermOnly(t *testing.T) {
	// rows far apart relative to sigma only see themselves
	x := mat.NewDense(3, 2, []float64{0, 0, 10, 10, -10, 10})
	got, err := Exact{}.Density(context.Background(), x, 0.02)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1}, got)
}

func TestBlockedMatchesExact(t *testing.T) {
	x := randomMatrix(301, 5, 7)

	want, err := Exact{}.Density(context.Background(), x, 0.3)
	require.NoError(t, err)

	for _, bs := range []int{1, 7, 64, 301, 1000} {
		got, err := Blocked{BlockSize: bs, Workers: 4}.Density(context.Background(), x, 0.3)
		require.NoError(t, err)
		assert.Equal(t, want, got, "block size %d", bs)
	}
}

func TestBlockedProgress(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []int
		total int
	)
	k := Blocked{
		BlockSize: 10,
		Workers:   3,
		Progress: func(done, n int) {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, done)
			total = n
		},
	}

	_, err := k.Density(context.Background(), randomMatrix(95, 3, 1), 0.5)
	require.NoError(t, err)
	assert.Equal(t, 10, total)
	assert.Len(t, calls, 10)
	assert.Equal(t, 10, calls[len(calls)-1])
}

func TestDensityCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	x := randomMatrix(50, 2, 3)
	for name, k := range map[string]Kernel{"exact": Exact{}, "blocked": Blocked{BlockSize: 8}} {
		_, err := k.Density(ctx, x, 1)
		assert.ErrorIs(t, err, context.Canceled, name)
	}
}

func TestDensityInvalidBandwidth(t *testing.T) {
	x := mat.NewDense(1, 1, []float64{0})
	for _, sigma := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := Exact{}.Density(context.Background(), x, sigma)
		assert.ErrorIs(t, err, ErrInvalidBandwidth)
		_, err = Blocked{}.Density(context.Background(), x, sigma)
		assert.ErrorIs(t, err, ErrInvalidBandwidth)
	}
}

func TestDensityEmpty(t *testing.T) {
	got, err := Blocked{}.Density(context.Background(), &mat.Dense{}, 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func BenchmarkDensity(b *testing.B) {
	sizes := []struct {
		samples  int
		features int
	}{
		{1000, 30},
		{4000, 30},
		{4000, 70},
	}

	for _, size := range sizes {
		x := randomMatrix(size.samples, size.features, 42)
		b.Run(fmt.Sprintf("Exact_Samples%d_Features%d", size.samples, size.features), func(b *testing.B) {
			for b.Loop() {
				_, _ = Exact{}.Density(context.Background(), x, 0.02)
			}
		})
		b.Run(fmt.Sprintf("Blocked_Samples%d_Features%d", size.samples, size.features), func(b *testing.B) {
			for b.Loop() {
				_, _ = Blocked{}.Density(context.Background(), x, 0.02)
			}
		})
	}
}

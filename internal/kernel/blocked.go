package kernel

import (
	"context"
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

const DefaultBlockSize = 256

// Blocked tiles the pairwise sum into BlockSize x BlockSize tiles and runs
// row blocks concurrently. Each row block owns a disjoint slice of the
// output, so the only synchronization is the final join.
type Blocked struct {
	BlockSize int // rows per tile, DefaultBlockSize when <= 0
	Workers   int // concurrent row blocks, GOMAXPROCS when <= 0

	// Progress, when set, is called after each row block with the number of
	// finished blocks and the total. Calls are serialized.
	Progress func(done, total int)
}

func (b Blocked) Density(ctx context.Context, x *mat.Dense, sigma float64) ([]float64, error) {
	coeff, err := coefficient(sigma)
	if err != nil {
		return nil, err
	}
	if x == nil || x.IsEmpty() {
		return []float64{}, nil
	}

	raw := x.RawMatrix()
	n := raw.Rows
	bs := b.BlockSize
	if bs <= 0 {
		bs = DefaultBlockSize
	}
	workers := b.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	blocks := (n + bs - 1) / bs

	out := make([]float64, n)

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for blk := range blocks {
		i0 := blk * bs
		i1 := min(i0+bs, n)
		g.Go(func() error {
			sums := out[i0:i1]
			for j0 := 0; j0 < n; j0 += bs {
				if err := gctx.Err(); err != nil {
					return err
				}
				j1 := min(j0+bs, n)
				for i := i0; i < i1; i++ {
					xi := rowOf(raw.Data, raw.Stride, raw.Cols, i)
					acc := sums[i-i0]
					for j := j0; j < j1; j++ {
						acc += math.Exp(coeff * sqDist(xi, rowOf(raw.Data, raw.Stride, raw.Cols, j)))
					}
					sums[i-i0] = acc
				}
			}

			if b.Progress != nil {
				mu.Lock()
				done++
				b.Progress(done, blocks)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

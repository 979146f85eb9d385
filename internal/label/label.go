// Package label implements the Fast-SV three-phase parallel union-find
// label propagator: Hook, Shortcut, and Update, each run as a barrier-
// synchronized fan-out/fan-in round over a fixed-size simulated work-group.
package label

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/cellgraph/ccl/internal/adjacency"
	"github.com/cellgraph/ccl/internal/arena"
)

// TraceFunc, if non-nil, is called once per iteration with the sum of the
// gf array, supporting an always-on convergence trace.
type TraceFunc func(iteration int, sumGF int64)

// Propagate runs Fast-SV over n cells using graph's adjacency, simulating a
// work-group of up to threadsPerBlock work-items. It returns the final
// parent array f (f[i] is the label of cell i) and the number of
// iterations taken to converge.
func Propagate(ctx context.Context, n int, graph *adjacency.Graph, threadsPerBlock int, ar *arena.Arena, trace TraceFunc) ([]int32, int, error) {
	if n == 0 {
		return nil, 0, nil
	}

	f, err := ar.AllocInt32Slice(n)
	if err != nil {
		return nil, 0, err
	}
	gf, err := ar.AllocInt32Slice(n)
	if err != nil {
		return nil, 0, err
	}
	for i := 0; i < n; i++ {
		f[i] = int32(i)
		gf[i] = int32(i)
	}

	workers := threadsPerBlock
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	iterations := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, iterations, err
		}

		// Phase 1: Hook. For every edge (i, j), hook the component with the
		// larger root onto the one with the smaller root.
		if err := fanOut(ctx, workers, n, func(i int) {
			gfi := atomic.LoadInt32(&gf[i])
			for _, j := range graph.NeighborsOf(i) {
				gfj := atomic.LoadInt32(&gf[j])
				if gfi > gfj {
					atomicMin(f, int(gfi), gfj)
				}
			}
		}); err != nil {
			return nil, iterations, err
		}

		// Phase 2: Shortcut. Halve every pointer's path to its root.
		if err := fanOut(ctx, workers, n, func(i int) {
			mid := atomic.LoadInt32(&f[i])
			root := atomic.LoadInt32(&f[mid])
			atomic.StoreInt32(&f[i], root)
		}); err != nil {
			return nil, iterations, err
		}

		// Phase 3: Update. Recompute gf and detect whether anything changed.
		var changed atomic.Bool
		var sumGF atomic.Int64
		if err := fanOut(ctx, workers, n, func(i int) {
			mid := atomic.LoadInt32(&f[i])
			newGF := atomic.LoadInt32(&f[mid])
			if newGF != gf[i] {
				changed.Store(true)
				gf[i] = newGF
			}
			sumGF.Add(int64(gf[i]))
		}); err != nil {
			return nil, iterations, err
		}

		iterations++
		if trace != nil {
			trace(iterations, sumGF.Load())
		}

		if !changed.Load() {
			break
		}
	}

	return f, iterations, nil
}

// fanOut runs fn(i) for i in [0, n) across workers goroutines, each handling
// a strided subset (tid, tid+workers, tid+2*workers, ...). It returns once
// every goroutine has returned — this IS the barrier between phases.
func fanOut(ctx context.Context, workers, n int, fn func(i int)) error {
	g, _ := errgroup.WithContext(ctx)
	for tid := 0; tid < workers; tid++ {
		tid := tid
		g.Go(func() error {
			for i := tid; i < n; i += workers {
				fn(i)
			}
			return nil
		})
	}
	return g.Wait()
}

// atomicMin sets f[idx] to val if val is smaller than the current value,
// retrying under contention. This is the hook phase's only cross-work-item
// write hazard, so it is the only place that needs a CAS loop.
func atomicMin(f []int32, idx int, val int32) {
	for {
		old := atomic.LoadInt32(&f[idx])
		if val >= old {
			return
		}
		if atomic.CompareAndSwapInt32(&f[idx], old, val) {
			return
		}
	}
}

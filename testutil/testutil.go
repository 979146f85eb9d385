// Package testutil provides testing utilities for the CCL engine.
//
// This package is intended for use in tests and benchmarks only. It
// generates synthetic detector-pixel cell grids — lines, L-shapes, dense
// blocks, isolated singletons, and Zipfian cluster-size distributions —
// for exercising the partitioner, propagator, and aggregator without a
// real detector frame.
//
// # Synthetic Cell Generation
//
//	rng := testutil.NewRNG(seed)
//	line := rng.Line(moduleID, 0, 0, 5, 1.0)     // 5-cell horizontal run
//	grid := rng.Grid(moduleID, 0, 10, 4, 4, 1.0) // 4x4 dense block
//	testutil.SortCells(append(line, grid...))
package testutil

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/cellgraph/ccl/internal/cell"
)

// RNG encapsulates a random number generator and seed. It is safe for
// concurrent use by multiple goroutines.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewSource(r.seed)) // nolint gosec
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// Activation returns a pseudo-random activation weight in (0.0, 1.0],
// avoiding the zero-weight cell that would make a cluster's Welford
// accumulator degenerate.
func (r *RNG) Activation() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return 1.0 - r.rand.Float32()
}

// Line generates a horizontal run of length consecutive cells sharing
// channel1, starting at startChannel0. Every cell in the run is
// 8-adjacent to its neighbor, so the whole run forms a single component.
func (r *RNG) Line(moduleID uint64, channel1, startChannel0 int32, length int, activation float32) []cell.Cell {
	cells := make([]cell.Cell, length)
	for i := range length {
		cells[i] = cell.Cell{
			Channel0:   startChannel0 + int32(i),
			Channel1:   channel1,
			ModuleID:   moduleID,
			Activation: activation,
		}
	}
	return cells
}

// LShape generates an L-shaped component: a vertical arm and a horizontal
// arm of armLength cells each, sharing a corner at
// (cornerChannel0, cornerChannel1).
func (r *RNG) LShape(moduleID uint64, cornerChannel0, cornerChannel1 int32, armLength int, activation float32) []cell.Cell {
	cells := make([]cell.Cell, 0, 2*armLength-1)
	for i := range armLength {
		cells = append(cells, cell.Cell{
			Channel0:   cornerChannel0,
			Channel1:   cornerChannel1 - int32(i),
			ModuleID:   moduleID,
			Activation: activation,
		})
	}
	for i := 1; i < armLength; i++ {
		cells = append(cells, cell.Cell{
			Channel0:   cornerChannel0 + int32(i),
			Channel1:   cornerChannel1,
			ModuleID:   moduleID,
			Activation: activation,
		})
	}
	return cells
}

// Grid generates a dense rows x cols rectangular block of cells, one
// connected component under 8-adjacency.
func (r *RNG) Grid(moduleID uint64, originChannel0, originChannel1 int32, rows, cols int, activation float32) []cell.Cell {
	cells := make([]cell.Cell, 0, rows*cols)
	for dy := range rows {
		for dx := range cols {
			cells = append(cells, cell.Cell{
				Channel0:   originChannel0 + int32(dx),
				Channel1:   originChannel1 + int32(dy),
				ModuleID:   moduleID,
				Activation: activation,
			})
		}
	}
	return cells
}

// IsolatedCells generates n singleton cells, each its own component,
// spaced spacing channel1 rows apart so no two are 8-adjacent. spacing
// must be >= 2.
func (r *RNG) IsolatedCells(moduleID uint64, n int, spacing int32, activation float32) []cell.Cell {
	cells := make([]cell.Cell, n)
	for i := range n {
		cells[i] = cell.Cell{
			Channel0:   0,
			Channel1:   int32(i) * spacing,
			ModuleID:   moduleID,
			Activation: activation,
		}
	}
	return cells
}

// Zipf returns a Zipfian-distributed value in [0, n), via inverse
// transform sampling. s=1.0 gives standard Zipf, s=1.5 gives heavy-tail.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}
	return n - 1
}

// ZipfClusterSizes partitions totalCells into numClusters group sizes
// drawn from a Zipfian distribution (each size in [1, totalCells]),
// rescaled so the sizes sum to exactly totalCells. Useful for generating
// a module whose cluster-size distribution follows a power law rather
// than a uniform one.
func (r *RNG) ZipfClusterSizes(numClusters, totalCells int, s float64) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if numClusters <= 0 || totalCells <= 0 {
		return nil
	}

	raw := make([]int, numClusters)
	sum := 0
	for i := range numClusters {
		v := r.zipfLocked(totalCells, s) + 1
		raw[i] = v
		sum += v
	}

	sizes := make([]int, numClusters)
	assigned := 0
	for i := range numClusters {
		sizes[i] = max(1, raw[i]*totalCells/sum)
		assigned += sizes[i]
	}
	// Drop or add the rounding remainder on the largest bucket so the
	// sizes sum exactly to totalCells.
	largest := 0
	for i, v := range sizes {
		if v > sizes[largest] {
			largest = i
		}
	}
	sizes[largest] += totalCells - assigned

	return sizes
}

// Translate shifts every cell in cells by (dChannel0, dChannel1), useful
// for placing multiple generated shapes into disjoint regions of the
// same module without collision.
func Translate(cells []cell.Cell, dChannel0, dChannel1 int32) []cell.Cell {
	out := make([]cell.Cell, len(cells))
	for i, c := range cells {
		out[i] = cell.Cell{
			Channel0:   c.Channel0 + dChannel0,
			Channel1:   c.Channel1 + dChannel1,
			ModuleID:   c.ModuleID,
			Activation: c.Activation,
		}
	}
	return out
}

// SortCells sorts cells in place by (ModuleID, Channel1, Channel0)
// ascending, the order the engine requires within a module.
func SortCells(cells []cell.Cell) {
	sort.Slice(cells, func(i, j int) bool {
		a, b := cells[i], cells[j]
		if a.ModuleID != b.ModuleID {
			return a.ModuleID < b.ModuleID
		}
		if a.Channel1 != b.Channel1 {
			return a.Channel1 < b.Channel1
		}
		return a.Channel0 < b.Channel0
	})
}

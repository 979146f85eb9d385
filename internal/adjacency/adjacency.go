// Package adjacency builds the bounded 8-neighbor fan-out for each cell in
// a partition, exploiting the fact that cells are sorted by
// (channel1, channel0) within a module so the full neighbor search can be
// done with a bidirectional scan instead of an all-pairs comparison.
package adjacency

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/cellgraph/ccl/internal/arena"
	"github.com/cellgraph/ccl/internal/cell"
)

// MaxNeighbors is the per-cell fan-out bound (8-connectivity).
const MaxNeighbors = 8

// Graph is the flattened adjacency list for one partition: cell i's
// neighbors are Neighbors[i*MaxNeighbors : i*MaxNeighbors+int(Counts[i])].
//
// Isolated marks every cell with zero neighbors — each is necessarily its
// own connected component, giving the caller a cheap lower bound on (and,
// when every cell is isolated, an exact count of) the partition's owners
// without running label propagation at all.
type Graph struct {
	Neighbors []int32
	Counts    []uint8
	Isolated  *roaring.Bitmap
}

// AllIsolated reports whether every cell in the partition is isolated, in
// which case the partition's component labels are the identity mapping
// and propagation can be skipped entirely.
func (g *Graph) AllIsolated() bool {
	return int(g.Isolated.GetCardinality()) == len(g.Counts)
}

// Build scans s (a single partition's cells, all belonging to one module)
// and records, for every cell, the local indices of its 8-connected
// neighbors. Both returned slices are carved from ar and live only as long
// as ar is not Reset.
func Build(s *cell.SoA, ar *arena.Arena) (*Graph, error) {
	n := s.Len()

	neighbors, err := ar.AllocInt32Slice(n * MaxNeighbors)
	if err != nil {
		return nil, err
	}
	counts, err := ar.AllocUint8Slice(n)
	if err != nil {
		return nil, err
	}

	isolated := roaring.New()
	for i := 0; i < n; i++ {
		// Scan backward while channel1 can still be within 1 of cell i's.
		for j := i - 1; j >= 0 && s.Channel1[i]-s.Channel1[j] <= 1; j-- {
			if counts[i] >= MaxNeighbors {
				break
			}
			if adjacent(s, i, j) {
				addNeighbor(neighbors, counts, i, int32(j))
			}
		}
		// Scan forward while channel1 can still be within 1 of cell i's.
		for j := i + 1; j < n && s.Channel1[j]-s.Channel1[i] <= 1; j++ {
			if counts[i] >= MaxNeighbors {
				break
			}
			if adjacent(s, i, j) {
				addNeighbor(neighbors, counts, i, int32(j))
			}
		}
		if counts[i] == 0 {
			isolated.Add(uint32(i))
		}
	}

	return &Graph{Neighbors: neighbors, Counts: counts, Isolated: isolated}, nil
}

func adjacent(s *cell.SoA, i, j int) bool {
	dc0 := s.Channel0[i] - s.Channel0[j]
	dc1 := s.Channel1[i] - s.Channel1[j]
	return dc0*dc0 <= 1 && dc1*dc1 <= 1
}

func addNeighbor(neighbors []int32, counts []uint8, i int, j int32) {
	c := counts[i]
	if int(c) >= MaxNeighbors {
		return
	}
	neighbors[i*MaxNeighbors+int(c)] = j
	counts[i] = c + 1
}

// NeighborsOf returns cell i's neighbor slice.
func (g *Graph) NeighborsOf(i int) []int32 {
	return g.Neighbors[i*MaxNeighbors : i*MaxNeighbors+int(g.Counts[i])]
}

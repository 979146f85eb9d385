// Package cell holds the column-major cell representation that the rest
// of the pipeline operates on, plus the debug-only sortedness check.
package cell

import (
	"errors"
	"fmt"
)

// ErrNotSorted is returned by ValidateSorted when a module's cells are not
// in (channel1, channel0) order.
var ErrNotSorted = errors.New("cell: cells are not sorted by (channel1, channel0)")

// Cell is a single detector-pixel activation.
type Cell struct {
	Channel0 int32
	Channel1 int32
	ModuleID uint64
	Activation float32
}

// SoA is the struct-of-slices layout the propagator and aggregator read
// and write. All slices share the same length; index i refers to the same
// cell across every slice.
type SoA struct {
	Channel0   []int32
	Channel1   []int32
	ModuleID   []uint64
	Activation []float32
}

// NewSoA converts a flat cell slice into struct-of-slices form.
func NewSoA(cells []Cell) *SoA {
	s := &SoA{
		Channel0:   make([]int32, len(cells)),
		Channel1:   make([]int32, len(cells)),
		ModuleID:   make([]uint64, len(cells)),
		Activation: make([]float32, len(cells)),
	}
	for i, c := range cells {
		s.Channel0[i] = c.Channel0
		s.Channel1[i] = c.Channel1
		s.ModuleID[i] = c.ModuleID
		s.Activation[i] = c.Activation
	}
	return s
}

// Len returns the number of cells held by the SoA.
func (s *SoA) Len() int {
	return len(s.Channel0)
}

// Slice returns the sub-range [lo, hi) as a new SoA sharing the backing
// arrays (no copy).
func (s *SoA) Slice(lo, hi int) *SoA {
	return &SoA{
		Channel0:   s.Channel0[lo:hi],
		Channel1:   s.Channel1[lo:hi],
		ModuleID:   s.ModuleID[lo:hi],
		Activation: s.Activation[lo:hi],
	}
}

// ValidateSorted checks that cells are grouped by module and, within each
// module, sorted by (channel1, channel0) ascending — the ordering the
// partitioner and adjacency reducer both assume. It is O(N) and meant to be
// run only when debug checks are enabled; callers should not pay this cost
// on every Process call.
func ValidateSorted(s *SoA) error {
	for i := 1; i < s.Len(); i++ {
		if s.ModuleID[i] < s.ModuleID[i-1] {
			return fmt.Errorf("%w: module id decreased at index %d (%d -> %d)",
				ErrNotSorted, i, s.ModuleID[i-1], s.ModuleID[i])
		}
		if s.ModuleID[i] != s.ModuleID[i-1] {
			continue
		}
		if s.Channel1[i] < s.Channel1[i-1] {
			return fmt.Errorf("%w: channel1 decreased at index %d (%d -> %d)",
				ErrNotSorted, i, s.Channel1[i-1], s.Channel1[i])
		}
		if s.Channel1[i] == s.Channel1[i-1] && s.Channel0[i] <= s.Channel0[i-1] {
			return fmt.Errorf("%w: channel0 not strictly increasing at index %d (%d -> %d)",
				ErrNotSorted, i, s.Channel0[i-1], s.Channel0[i])
		}
	}
	return nil
}

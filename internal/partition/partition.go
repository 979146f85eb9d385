// Package partition splits a sorted cell stream into independent work
// units small enough to label with a single bounded work-group.
package partition

import (
	"errors"
	"fmt"

	"github.com/cellgraph/ccl/internal/cell"
)

// ErrTooLarge is returned when a run of cells that cannot be split (a
// dense run within one module, not separated by a channel1 gap) exceeds
// the configured maximum partition size.
var ErrTooLarge = errors.New("partition: run exceeds max cells per partition")

// Partition is a contiguous [Start, End) range of cell indices within one
// CellBatch's SoA that can be labeled independently of every other
// partition in the batch.
type Partition struct {
	ModuleID uint64
	Start    int
	End      int
}

// Len returns the number of cells in the partition.
func (p Partition) Len() int {
	return p.End - p.Start
}

// Config bounds partition sizing.
type Config struct {
	// ThreadsPerBlock is the work-group size; a split on a channel1 gap is
	// only taken once the current partition holds at least 2*ThreadsPerBlock
	// cells, so work-groups stay reasonably full.
	ThreadsPerBlock int
	// MaxCellsPerPartition is the hard cap. A run that cannot be split
	// below this without crossing a module boundary is a fatal error.
	MaxCellsPerPartition int
}

// Split partitions s (assumed sorted: grouped by module, then by
// (channel1, channel0) ascending within a module) into Partitions.
//
// A split is taken:
//   - mandatorily, at every module boundary;
//   - opportunistically, when channel1 jumps by more than 1 from the
//     previous cell AND the current partition already holds at least
//     2*ThreadsPerBlock cells.
//
// A partition that reaches MaxCellsPerPartition without a valid split
// point returns ErrTooLarge.
func Split(s *cell.SoA, cfg Config) ([]Partition, error) {
	n := s.Len()
	if n == 0 {
		return nil, nil
	}

	minSplitSize := 2 * cfg.ThreadsPerBlock

	var partitions []Partition
	start := 0
	for i := 1; i <= n; i++ {
		atEnd := i == n
		moduleBoundary := !atEnd && s.ModuleID[i] != s.ModuleID[i-1]
		channel1Gap := !atEnd && s.ModuleID[i] == s.ModuleID[i-1] && s.Channel1[i]-s.Channel1[i-1] > 1
		currentSize := i - start

		shouldSplit := atEnd || moduleBoundary || (channel1Gap && currentSize >= minSplitSize)

		if !shouldSplit && currentSize >= cfg.MaxCellsPerPartition {
			return nil, fmt.Errorf("%w: module %d, run starting at index %d reached %d cells",
				ErrTooLarge, s.ModuleID[start], start, currentSize)
		}

		if shouldSplit {
			partitions = append(partitions, Partition{
				ModuleID: s.ModuleID[start],
				Start:    start,
				End:      i,
			})
			start = i
		}
	}

	for _, p := range partitions {
		if p.Len() > cfg.MaxCellsPerPartition {
			return nil, fmt.Errorf("%w: module %d, partition [%d,%d) holds %d cells",
				ErrTooLarge, p.ModuleID, p.Start, p.End, p.Len())
		}
	}

	return partitions, nil
}

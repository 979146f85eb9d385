package ccl

import (
	"context"
	"errors"
	"fmt"

	"github.com/cellgraph/ccl/internal/cell"
	"github.com/cellgraph/ccl/internal/partition"
)

var (
	// ErrPartitionTooLarge is returned when a module contains a run of
	// cells exceeding the configured MaxCellsPerPartition with no internal
	// channel1 gap to split on. Fatal: no output is produced for any
	// batch of the Process call that triggered it.
	ErrPartitionTooLarge = errors.New("ccl: partition exceeds max cells per partition")

	// ErrInputNotSorted is returned, only when WithDebugChecks(true) is
	// set, when a batch's cells are not grouped by module and sorted by
	// (channel1, channel0) within a module. Without debug checks, a
	// violation is undefined behavior: the algorithm assumes sort order
	// and does not re-verify it on the hot path.
	ErrInputNotSorted = errors.New("ccl: input cells are not sorted")

	// ErrCapacityExhausted would indicate the output buffer (sized to one
	// measurement per input cell) overflowed. Unreachable if the sort and
	// adjacency invariants hold; kept as a typed sentinel for completeness
	// rather than a reachable failure mode.
	ErrCapacityExhausted = errors.New("ccl: output capacity exhausted")
)

// ErrExecutorFailure wraps any error raised by the concurrency machinery
// itself — worker pool submission, context cancellation, resource
// controller acquisition — as opposed to a data-shape error like
// ErrPartitionTooLarge. The original underlying error is available via
// errors.Unwrap.
type ErrExecutorFailure struct {
	cause error
}

func (e *ErrExecutorFailure) Error() string {
	return fmt.Sprintf("ccl: executor failure: %v", e.cause)
}

func (e *ErrExecutorFailure) Unwrap() error { return e.cause }

// translateError maps errors raised by internal packages onto the public
// error contract above, so callers only ever need to match against this
// package's exported sentinels/types.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, partition.ErrTooLarge) {
		return fmt.Errorf("%w: %w", ErrPartitionTooLarge, err)
	}
	if errors.Is(err, cell.ErrNotSorted) {
		return fmt.Errorf("%w: %w", ErrInputNotSorted, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &ErrExecutorFailure{cause: err}
	}

	return &ErrExecutorFailure{cause: err}
}

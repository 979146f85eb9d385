// Package orchestrator is the only component that touches the boundary
// between one call's input and the parallel kernels: it builds the
// partition list, dispatches one work-group per partition onto a worker
// pool under a resource controller, and demultiplexes the flat output
// buffer back into per-module measurement lists.
package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/cellgraph/ccl/internal/adjacency"
	"github.com/cellgraph/ccl/internal/aggregate"
	"github.com/cellgraph/ccl/internal/arena"
	"github.com/cellgraph/ccl/internal/cell"
	"github.com/cellgraph/ccl/internal/label"
	"github.com/cellgraph/ccl/internal/partition"
	"github.com/cellgraph/ccl/internal/pool"
	"github.com/cellgraph/ccl/internal/resource"
)

// Config bounds one Run call's execution.
type Config struct {
	ThreadsPerBlock      int
	MaxCellsPerPartition int
	Workers              int
	ScratchChunkSize     int
	DebugChecks          bool
	Resource             resource.Config
}

// PartitionOutcome is reported once per partition via Hooks.OnPartition,
// regardless of success or failure, for metrics/logging at the call site.
type PartitionOutcome struct {
	ModuleID   uint64
	Partition  partition.Partition
	Iterations int
	Count      int
}

// Hooks lets the caller observe per-partition completions without the
// orchestrator importing the root package's logging/metrics types.
type Hooks struct {
	OnPartition func(outcome PartitionOutcome, err error)
}

// Run partitions s, runs the adjacency/label/aggregate kernels for every
// partition concurrently, and returns one measurement list per module_id.
func Run(ctx context.Context, s *cell.SoA, cfg Config, hooks Hooks) (map[uint64][]aggregate.Measurement, error) {
	if s.Len() == 0 {
		return map[uint64][]aggregate.Measurement{}, nil
	}

	if cfg.DebugChecks {
		if err := cell.ValidateSorted(s); err != nil {
			return nil, err
		}
	}

	partitions, err := partition.Split(s, partition.Config{
		ThreadsPerBlock:      cfg.ThreadsPerBlock,
		MaxCellsPerPartition: cfg.MaxCellsPerPartition,
	})
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 || workers > len(partitions) {
		workers = len(partitions)
	}
	if workers < 1 {
		workers = 1
	}

	// Every chunk must hold a full partition's adjacency buffer.
	chunkSize := cfg.ScratchChunkSize
	if chunkSize <= 0 {
		chunkSize = arena.DefaultChunkSize
	}
	chunkSize = max(chunkSize, cfg.MaxCellsPerPartition*adjacency.MaxNeighbors*4)
	scratch := pool.NewScratchPool(chunkSize)
	wp := pool.New(workers, scratch)
	defer wp.Close()

	rc := resource.NewController(cfg.Resource)

	n := s.Len()
	output := make([]aggregate.Measurement, n)

	var globalCounter atomic.Int64
	reservation := aggregate.NewReservation(&globalCounter)

	var bitmapMu sync.Mutex
	bitmaps := map[uint64]*roaring.Bitmap{}

	var once sync.Once
	var firstErr error

	var wg sync.WaitGroup
	for _, p := range partitions {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()

			outcome := PartitionOutcome{ModuleID: p.ModuleID, Partition: p}
			submitErr := wp.Submit(ctx, func(jobCtx context.Context, scratch *arena.Arena) error {
				iterations, count, runErr := processPartition(jobCtx, s, p, cfg, rc, scratch, reservation, output, &bitmapMu, bitmaps)
				outcome.Iterations = iterations
				outcome.Count = count
				return runErr
			})

			if hooks.OnPartition != nil {
				hooks.OnPartition(outcome, submitErr)
			}
			if submitErr != nil {
				once.Do(func() { firstErr = submitErr })
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	result := make(map[uint64][]aggregate.Measurement, len(bitmaps))
	for moduleID, bm := range bitmaps {
		list := make([]aggregate.Measurement, 0, bm.GetCardinality())
		it := bm.Iterator()
		for it.HasNext() {
			list = append(list, output[it.Next()])
		}
		result[moduleID] = list
	}
	return result, nil
}

// processPartition runs the adjacency/label/aggregate kernels for one
// partition and scatters its measurements into the shared output buffer.
// It returns the number of Fast-SV iterations taken and the number of
// measurements produced, for the caller's PartitionOutcome.
func processPartition(
	ctx context.Context,
	s *cell.SoA,
	p partition.Partition,
	cfg Config,
	rc *resource.Controller,
	scratch *arena.Arena,
	reservation aggregate.Reservation,
	output []aggregate.Measurement,
	bitmapMu *sync.Mutex,
	bitmaps map[uint64]*roaring.Bitmap,
) (iterations, count int, err error) {
	if err := rc.AcquireSlot(ctx); err != nil {
		return 0, 0, err
	}
	defer rc.ReleaseSlot()
	if err := rc.WaitLaunch(ctx); err != nil {
		return 0, 0, err
	}

	sub := s.Slice(p.Start, p.End)

	graph, err := adjacency.Build(sub, scratch)
	if err != nil {
		return 0, 0, err
	}

	var f []int32
	if graph.AllIsolated() {
		f, err = scratch.AllocInt32Slice(sub.Len())
		if err != nil {
			return 0, 0, err
		}
		for i := range f {
			f[i] = int32(i)
		}
	} else {
		f, iterations, err = label.Propagate(ctx, sub.Len(), graph, cfg.ThreadsPerBlock, scratch, nil)
		if err != nil {
			return iterations, 0, err
		}
	}

	measurements, slots, err := aggregate.Aggregate(ctx, sub, f, cfg.ThreadsPerBlock, reservation)
	if err != nil {
		return iterations, 0, err
	}
	if len(measurements) == 0 {
		return iterations, 0, nil
	}

	for i, slot := range slots {
		output[slot] = measurements[i]
	}

	start := slots[0]
	bitmapMu.Lock()
	bm, ok := bitmaps[p.ModuleID]
	if !ok {
		bm = roaring.New()
		bitmaps[p.ModuleID] = bm
	}
	bm.AddRange(uint64(start), uint64(start)+uint64(len(slots)))
	bitmapMu.Unlock()

	return iterations, len(measurements), nil
}

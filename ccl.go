package ccl

import (
	"context"
	"errors"
	"time"

	"github.com/cellgraph/ccl/internal/aggregate"
	"github.com/cellgraph/ccl/internal/cell"
	"github.com/cellgraph/ccl/internal/diagnostics"
	"github.com/cellgraph/ccl/internal/fs"
	"github.com/cellgraph/ccl/internal/orchestrator"
)

// Cell is a single detector-pixel activation, as presented at the public
// API boundary. Time is passed through the pipeline but never read by the
// core kernel.
type Cell struct {
	Channel0   int32
	Channel1   int32
	Activation float32
	Time       float64
}

// Measurement is one cluster's weighted centroid and variance.
type Measurement struct {
	Channel0  float64
	Channel1  float64
	Variance0 float64
	Variance1 float64
}

// CellBatch is one detector module's sorted cell list. Cells must be
// sorted by (channel1, channel0) ascending within the batch.
type CellBatch struct {
	ModuleID uint64
	Cells    []Cell
}

// MeasurementBatch is one detector module's output measurement list, in
// no particular order.
type MeasurementBatch struct {
	ModuleID     uint64
	Measurements []Measurement
}

// Engine runs the CCL pipeline. An Engine is safe for concurrent use by
// multiple goroutines; it holds no per-call state between Process calls.
type Engine struct {
	opts options
}

// New constructs an Engine with the given options.
func New(optFns ...Option) *Engine {
	return &Engine{opts: applyOptions(optFns)}
}

// Process clusters every batch's cells and returns one measurement batch
// per input batch, in the same order. The engine allocates and owns all
// working buffers for the duration of this call; scratch arenas are pooled
// and reused across partitions within the call, and nothing survives
// across calls.
func (e *Engine) Process(ctx context.Context, batches []CellBatch) ([]MeasurementBatch, error) {
	start := time.Now()

	soa := buildSoA(batches)

	result, err := orchestrator.Run(ctx, soa, orchestrator.Config{
		ThreadsPerBlock:      e.opts.threadsPerBlock,
		MaxCellsPerPartition: e.opts.maxCellsPerPartition,
		ScratchChunkSize:     0,
		DebugChecks:          e.opts.debugChecks,
		Resource:             e.opts.resourceConfig,
	}, orchestrator.Hooks{
		OnPartition: func(outcome orchestrator.PartitionOutcome, err error) {
			e.opts.logger.LogPropagate(ctx, outcome.ModuleID, outcome.Partition.Start, outcome.Partition.End, outcome.Iterations, err)
			e.opts.logger.LogAggregate(ctx, outcome.ModuleID, outcome.Partition.Start, outcome.Partition.End, outcome.Count, err)
			e.opts.metricsCollector.RecordPartition(outcome.Partition.Len(), outcome.Count, 0, err)
			if err == nil {
				e.opts.metricsCollector.RecordPropagationIterations(outcome.Iterations)
			}
		},
	})

	publicErr := translateError(err)
	if publicErr != nil {
		e.dumpPostmortem(ctx, soa, publicErr)
	}

	totalMeasurements := 0
	for _, ms := range result {
		totalMeasurements += len(ms)
	}
	e.opts.metricsCollector.RecordProcess(time.Since(start), publicErr)
	e.opts.logger.LogOrchestrate(ctx, len(batches), totalMeasurements, publicErr)

	if publicErr != nil {
		return nil, publicErr
	}

	out := make([]MeasurementBatch, len(batches))
	for i, b := range batches {
		out[i] = MeasurementBatch{
			ModuleID:     b.ModuleID,
			Measurements: convertMeasurements(result[b.ModuleID]),
		}
	}
	return out, nil
}

func (e *Engine) dumpPostmortem(ctx context.Context, soa *cell.SoA, cause error) {
	if !e.opts.debugChecks || e.opts.diagnosticsDir == "" {
		return
	}
	if !errors.Is(cause, ErrPartitionTooLarge) && !errors.Is(cause, ErrInputNotSorted) {
		return
	}

	w := diagnostics.NewPostmortemWriter(fs.Default, e.opts.diagnosticsDir)
	snap := diagnostics.PartitionSnapshot{
		PartitionStart: 0,
		PartitionEnd:   soa.Len(),
		Channel0:       append([]int32(nil), soa.Channel0...),
		Channel1:       append([]int32(nil), soa.Channel1...),
		Activation:     append([]float32(nil), soa.Activation...),
		Err:            cause.Error(),
		CapturedAt:     time.Now(),
	}
	if soa.Len() > 0 {
		snap.ModuleID = soa.ModuleID[0]
	}

	path, dumpErr := w.Dump(context.Background(), snap)
	if dumpErr != nil {
		e.opts.logger.ErrorContext(ctx, "postmortem dump failed", "error", dumpErr)
		return
	}
	e.opts.logger.InfoContext(ctx, "postmortem dump written", "path", path)
}

func buildSoA(batches []CellBatch) *cell.SoA {
	n := 0
	for _, b := range batches {
		n += len(b.Cells)
	}

	flat := make([]cell.Cell, 0, n)
	for _, b := range batches {
		for _, c := range b.Cells {
			flat = append(flat, cell.Cell{
				Channel0:   c.Channel0,
				Channel1:   c.Channel1,
				ModuleID:   b.ModuleID,
				Activation: c.Activation,
			})
		}
	}
	return cell.NewSoA(flat)
}

func convertMeasurements(ms []aggregate.Measurement) []Measurement {
	if len(ms) == 0 {
		return nil
	}
	out := make([]Measurement, len(ms))
	for i, m := range ms {
		out[i] = Measurement{
			Channel0:  m.MeanChannel0,
			Channel1:  m.MeanChannel1,
			Variance0: m.VarChannel0,
			Variance1: m.VarChannel1,
		}
	}
	return out
}

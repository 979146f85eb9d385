package ccl

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational
// metrics. Implement this interface to integrate with monitoring systems
// like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    processHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordProcess(duration time.Duration, err error) {
//	    p.processHistogram.Observe(duration.Seconds())
//	}
type MetricsCollector interface {
	// RecordProcess is called once per Process call.
	RecordProcess(duration time.Duration, err error)

	// RecordPartition is called once per partition processed, across
	// every batch in a Process call.
	RecordPartition(cellCount, measurementCount int, duration time.Duration, err error)

	// RecordPropagationIterations is called once per partition that
	// completed without error, with the number of Fast-SV rounds taken to
	// converge.
	RecordPropagationIterations(iterations int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordProcess(time.Duration, error)             {}
func (NoopMetricsCollector) RecordPartition(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordPropagationIterations(int)                {}

// BasicMetricsCollector provides simple in-memory metrics collection,
// useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ProcessCount          atomic.Int64
	ProcessErrors         atomic.Int64
	ProcessTotalNanos     atomic.Int64
	PartitionCount        atomic.Int64
	PartitionErrors       atomic.Int64
	PartitionTotalNanos   atomic.Int64
	CellsProcessed        atomic.Int64
	MeasurementsProduced  atomic.Int64
	PropagationIterations atomic.Int64
}

// RecordProcess implements MetricsCollector.
func (b *BasicMetricsCollector) RecordProcess(duration time.Duration, err error) {
	b.ProcessCount.Add(1)
	b.ProcessTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ProcessErrors.Add(1)
	}
}

// RecordPartition implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPartition(cellCount, measurementCount int, duration time.Duration, err error) {
	b.PartitionCount.Add(1)
	b.PartitionTotalNanos.Add(duration.Nanoseconds())
	b.CellsProcessed.Add(int64(cellCount))
	b.MeasurementsProduced.Add(int64(measurementCount))
	if err != nil {
		b.PartitionErrors.Add(1)
	}
}

// RecordPropagationIterations implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPropagationIterations(iterations int) {
	b.PropagationIterations.Add(int64(iterations))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ProcessCount:         b.ProcessCount.Load(),
		ProcessErrors:        b.ProcessErrors.Load(),
		ProcessAvgNanos:      b.avgNanos(b.ProcessTotalNanos.Load(), b.ProcessCount.Load()),
		PartitionCount:       b.PartitionCount.Load(),
		PartitionErrors:      b.PartitionErrors.Load(),
		PartitionAvgNanos:    b.avgNanos(b.PartitionTotalNanos.Load(), b.PartitionCount.Load()),
		CellsProcessed:       b.CellsProcessed.Load(),
		MeasurementsProduced: b.MeasurementsProduced.Load(),
		AvgPropagationRounds: b.avgNanos(b.PropagationIterations.Load(), b.PartitionCount.Load()),
	}
}

func (b *BasicMetricsCollector) avgNanos(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ProcessCount         int64
	ProcessErrors        int64
	ProcessAvgNanos      int64
	PartitionCount       int64
	PartitionErrors      int64
	PartitionAvgNanos    int64
	CellsProcessed       int64
	MeasurementsProduced int64
	AvgPropagationRounds int64
}

package ccl

import (
	"log/slog"
	"runtime"

	"github.com/cellgraph/ccl/internal/resource"
)

// DefaultThreadsPerBlock is the simulated work-group size: the number of
// goroutines that cooperate, via barrier-synchronized fan-out, on a single
// partition's label propagation and aggregation.
const DefaultThreadsPerBlock = 256

// DefaultMaxCellsPerPartition is the hard cap on a single partition's
// cell count.
const DefaultMaxCellsPerPartition = 2048

type options struct {
	logger               *Logger
	metricsCollector     MetricsCollector
	threadsPerBlock      int
	maxCellsPerPartition int
	resourceConfig       resource.Config
	debugChecks          bool
	diagnosticsDir       string
}

// Option configures an Engine constructed with New.
//
// Today options primarily exist to avoid exploding New's signature with
// positional tuning parameters that most callers never need.
type Option func(*options)

// WithLogger configures structured logging for the engine. Pass nil to
// disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets
// it. Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// Process calls. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithThreadsPerBlock overrides the simulated work-group size (default
// DefaultThreadsPerBlock). Exposed mainly so tests can exercise the
// partitioner's opportunistic-split threshold (2x this value) at a
// tractable scale.
func WithThreadsPerBlock(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.threadsPerBlock = n
		}
	}
}

// WithMaxCellsPerPartition overrides the hard cap on partition size
// (default DefaultMaxCellsPerPartition). Callers whose modules contain
// dense, uninterrupted runs larger than the default cap must raise it or
// pre-split their input.
func WithMaxCellsPerPartition(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxCellsPerPartition = n
		}
	}
}

// WithResourceConfig bounds how many partitions run concurrently and how
// fast new ones are dispatched.
func WithResourceConfig(cfg resource.Config) Option {
	return func(o *options) {
		o.resourceConfig = cfg
	}
}

// WithDebugChecks enables the O(N) input-sortedness validation before
// partitioning and, together with WithDiagnosticsDir, a best-effort
// postmortem dump of the whole flattened input on a fatal error.
// Off by default: the sort order is a documented precondition, not
// something every Process call should pay to re-verify.
func WithDebugChecks(enabled bool) Option {
	return func(o *options) {
		o.debugChecks = enabled
	}
}

// WithDiagnosticsDir sets the directory postmortem dumps are written to
// when WithDebugChecks(true) is set and a partition fails fatally. If
// unset, postmortem capture is skipped even with debug checks enabled.
func WithDiagnosticsDir(dir string) Option {
	return func(o *options) {
		o.diagnosticsDir = dir
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:               NoopLogger(),
		metricsCollector:     NoopMetricsCollector{},
		threadsPerBlock:      DefaultThreadsPerBlock,
		maxCellsPerPartition: DefaultMaxCellsPerPartition,
		// Partitions are embarrassingly parallel across each other, so
		// default to as many concurrently resident partitions as there
		// are schedulable OS threads, rather than resource.Controller's
		// own conservative zero-value default of 1, which would
		// otherwise serialize every Process call.
		resourceConfig: resource.Config{
			MaxConcurrentPartitions: int64(runtime.GOMAXPROCS(0)),
		},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

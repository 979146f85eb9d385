// Package ccl implements a parallel sparse connected-component labeling
// engine for detector-pixel "cell" clustering.
//
// Cells arrive one sorted list per detector module. The engine partitions
// each module's cells into independent work units, runs a three-phase
// Fast-SV parallel union-find over each partition's bounded 8-neighborhood
// adjacency, and aggregates converged labels into weighted centroid and
// variance measurements — one per connected component.
//
// # Quick Start
//
//	eng := ccl.New(ccl.WithLogLevel(slog.LevelInfo))
//	out, err := eng.Process(ctx, []ccl.CellBatch{
//	    {ModuleID: 7, Cells: cells},
//	})
//
// # Model
//
// The engine is stateless across Process calls: nothing survives one call
// to the next; scratch buffers are pooled and reused only across the
// partitions of one call. Every batch passed to one Process call is flattened into a
// single column-major buffer, split into partitions that never cross a
// module boundary, and every partition is processed concurrently, bounded
// by WithResourceConfig.
//
// # Debug checks
//
// WithDebugChecks(true) enables an O(N) sortedness validation of every
// input batch before partitioning, and, when WithDiagnosticsDir is also
// set, a best-effort postmortem dump of the whole flattened input on a
// fatal partitioning or sort error, for offline replay. Both are off by
// default since the sort invariant is a documented precondition, not
// something the hot path should pay to re-verify.
package ccl

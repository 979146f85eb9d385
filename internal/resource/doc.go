// Package resource implements the Controller governing how many partitions
// (work-groups) may execute concurrently and how fast new ones may be
// dispatched, modeling the bounded number of work-groups a parallel
// executor can schedule and a bounded host-to-executor launch queue.
//
// # Architecture
//
//	┌───────────────────────────────────────────────┐
//	│                   Controller                   │
//	├───────────────────────┬─────────────────────────┤
//	│  Launch concurrency   │   Launch rate           │
//	│  (weighted semaphore) │   (token bucket)         │
//	├───────────────────────┼─────────────────────────┤
//	│  AcquireSlot           │   WaitLaunch             │
//	│  TryAcquireSlot        │   TryLaunch              │
//	│  ReleaseSlot           │                          │
//	└───────────────────────┴─────────────────────────┘
//
// # Thread Safety
//
// All Controller methods are safe for concurrent use.
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully — they become no-ops,
// letting callers treat "no resource limiting configured" uniformly.
package resource

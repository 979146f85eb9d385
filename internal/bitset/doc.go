// Package bitset provides a lock-free segmented bitset for concurrent access.
//
// Architecture:
//   - Segmented design: 8KiB segments (1024 uint64 words = 65536 bits each)
//   - Lock-free: atomic.Pointer for segment array, atomic.Uint64 for words
//   - Segments are allocated by New and Grow; Set on an index past the
//     current size is ignored
//
// Used internally for:
//   - Per-partition component-root marking during aggregation (FastBitSet)
package bitset

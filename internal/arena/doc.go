// Package arena provides a bump allocator for per-partition scratch
// buffers used during connected-component labeling: adjacency lists and
// the Fast-SV f[]/gf[] arrays.
//
// # Features
//
//   - Heap-backed chunked allocation
//   - Lock-free CAS bump allocation within a chunk
//   - Reset reuses the arena across partitions without reallocating
package arena

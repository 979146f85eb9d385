// Package mem provides memory allocation utilities.
//
// # Aligned Allocation
//
// Provides 64-byte aligned allocation of byte, float32, int8 and int32
// slices.
//
// # Residency
//
// Lock/Unlock best-effort pin a buffer via mlock on platforms that support
// it (Linux, Darwin); elsewhere they are no-ops.
//
// No other package of the engine imports mem: the label propagator's
// f[]/gf[] arrays come from internal/arena and are not pinned.
package mem

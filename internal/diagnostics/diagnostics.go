// Package diagnostics holds two off-hot-path debugging aids: a postmortem
// dump of cell data on a fatal error, and a convergence trace of the label
// propagator's per-iteration Σgf. Neither mechanism is part of the core
// kernel. The engine uses the postmortem writer only when run with debug
// checks and a diagnostics directory; it does not install the convergence
// trace (the propagator runs without a trace callback).
package diagnostics

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/cellgraph/ccl/internal/fs"
)

// PartitionSnapshot is the offending partition's raw cell data, captured at
// the moment a fatal error (ErrPartitionTooLarge or ErrInputNotSorted) was
// raised, so the failure can be replayed offline without rerunning the
// whole batch.
type PartitionSnapshot struct {
	ModuleID       uint64
	PartitionStart int
	PartitionEnd   int
	Channel0       []int32
	Channel1       []int32
	Activation     []float32
	Err            string
	CapturedAt     time.Time
}

// PostmortemWriter gob-encodes and zstd-compresses a PartitionSnapshot to a
// file under dir, using fsys so tests can inject write failures without
// touching the real filesystem.
type PostmortemWriter struct {
	fsys fs.FileSystem
	dir  string
}

// NewPostmortemWriter creates a PostmortemWriter rooted at dir. A nil fsys
// uses fs.Default.
func NewPostmortemWriter(fsys fs.FileSystem, dir string) *PostmortemWriter {
	if fsys == nil {
		fsys = fs.Default
	}
	return &PostmortemWriter{fsys: fsys, dir: dir}
}

// Dump encodes snap and writes it as a zstd-compressed file, returning the
// path written. Best-effort: callers should log a Dump failure, not treat
// it as fatal on top of the error that triggered the dump.
func (w *PostmortemWriter) Dump(ctx context.Context, snap PartitionSnapshot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(snap); err != nil {
		return "", fmt.Errorf("diagnostics: encode snapshot: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return "", fmt.Errorf("diagnostics: new zstd writer: %w", err)
	}
	defer enc.Close()
	compressed := enc.EncodeAll(raw.Bytes(), nil)

	if err := w.fsys.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("diagnostics: mkdir %s: %w", w.dir, err)
	}

	name := fmt.Sprintf("partition-module%d-%d-%d.gob.zst", snap.ModuleID, snap.PartitionStart, snap.PartitionEnd)
	path := filepath.Join(w.dir, name)

	f, err := w.fsys.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("diagnostics: open %s: %w", path, err)
	}
	if _, err := f.Write(compressed); err != nil {
		f.Close()
		return "", fmt.Errorf("diagnostics: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("diagnostics: close %s: %w", path, err)
	}

	return path, nil
}

// Load reverses Dump, for offline replay tooling.
func (w *PostmortemWriter) Load(path string) (PartitionSnapshot, error) {
	var snap PartitionSnapshot

	f, err := w.fsys.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return snap, fmt.Errorf("diagnostics: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return snap, fmt.Errorf("diagnostics: stat %s: %w", path, err)
	}
	compressed := make([]byte, info.Size())
	if _, err := f.ReadAt(compressed, 0); err != nil {
		return snap, fmt.Errorf("diagnostics: read %s: %w", path, err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return snap, fmt.Errorf("diagnostics: new zstd reader: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return snap, fmt.Errorf("diagnostics: decompress %s: %w", path, err)
	}

	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&snap); err != nil {
		return snap, fmt.Errorf("diagnostics: decode %s: %w", path, err)
	}
	return snap, nil
}

// TraceEntry is one Fast-SV iteration's convergence signal.
type TraceEntry struct {
	Iteration int
	SumGF     int64
}

// ConvergenceTrace is a fixed-capacity ring buffer of TraceEntry, cheap
// enough to run unconditionally on every Process call. It does not
// compress on every Record — only Export pays the lz4 cost, on demand.
type ConvergenceTrace struct {
	mu       sync.Mutex
	capacity int
	entries  []TraceEntry
	next     int
	count    int
}

// NewConvergenceTrace creates a trace holding the most recent capacity
// entries. A capacity of 0 disables recording (Record becomes a no-op).
func NewConvergenceTrace(capacity int) *ConvergenceTrace {
	return &ConvergenceTrace{
		capacity: capacity,
		entries:  make([]TraceEntry, capacity),
	}
}

// Record appends one iteration's convergence signal, overwriting the
// oldest entry once the buffer is full. Its signature matches
// label.TraceFunc so it can be passed directly as the propagator's trace
// callback.
func (c *ConvergenceTrace) Record(iteration int, sumGF int64) {
	if c == nil || c.capacity == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.next] = TraceEntry{Iteration: iteration, SumGF: sumGF}
	c.next = (c.next + 1) % c.capacity
	if c.count < c.capacity {
		c.count++
	}
}

// Snapshot returns the recorded entries in oldest-to-newest order.
func (c *ConvergenceTrace) Snapshot() []TraceEntry {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]TraceEntry, c.count)
	if c.count < c.capacity {
		copy(out, c.entries[:c.count])
		return out
	}
	start := c.next
	for i := 0; i < c.capacity; i++ {
		out[i] = c.entries[(start+i)%c.capacity]
	}
	return out
}

// Export lz4-frame-compresses a gob encoding of the current snapshot to w.
func (c *ConvergenceTrace) Export(w *lz4.Writer) error {
	entries := c.Snapshot()

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(entries); err != nil {
		return fmt.Errorf("diagnostics: encode trace: %w", err)
	}

	if _, err := w.Write(raw.Bytes()); err != nil {
		return fmt.Errorf("diagnostics: lz4 write: %w", err)
	}
	return w.Close()
}

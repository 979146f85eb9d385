// Package pool provides a bounded goroutine worker pool for dispatching
// partition jobs, and a sync.Pool-backed source of reusable per-partition
// scratch arenas.
package pool

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cellgraph/ccl/internal/arena"
)

// Job is a unit of work dispatched to the pool. It receives a scratch
// arena scoped to its own partition and must not retain it past return.
type Job func(ctx context.Context, scratch *arena.Arena) error

// WorkerPool runs Jobs on a fixed number of goroutines, backpressuring the
// submitter once all workers are busy. It models the bound on the number
// of work-groups a parallel executor can run concurrently.
type WorkerPool struct {
	jobs    chan jobRequest
	wg      sync.WaitGroup
	closed  atomic.Bool
	scratch *ScratchPool
}

type jobRequest struct {
	ctx context.Context
	job Job
	err chan<- error
}

// New creates a WorkerPool with the given number of workers. Each worker
// pulls a scratch arena from scratch for the duration of one job and
// returns it afterward.
func New(workers int, scratch *ScratchPool) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	p := &WorkerPool{
		jobs:    make(chan jobRequest),
		scratch: scratch,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.runWorker()
	}
	return p
}

func (p *WorkerPool) runWorker() {
	defer p.wg.Done()
	for req := range p.jobs {
		scratch := p.scratch.Get()
		err := req.job(req.ctx, scratch)
		p.scratch.Put(scratch)
		req.err <- err
	}
}

// Submit runs job on a worker and blocks until it completes, returning its
// error. It is safe to call Submit from multiple goroutines concurrently.
func (p *WorkerPool) Submit(ctx context.Context, job Job) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	errCh := make(chan error, 1)
	select {
	case p.jobs <- jobRequest{ctx: ctx, job: job, err: errCh}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting new jobs and waits for in-flight workers to drain.
func (p *WorkerPool) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	close(p.jobs)
	p.wg.Wait()
}

// ScratchPool hands out reset *arena.Arena instances sized for one
// partition's adjacency and label-propagation scratch needs, avoiding a
// fresh allocation per partition.
type ScratchPool struct {
	pool sync.Pool
}

// NewScratchPool creates a ScratchPool whose arenas use chunkSize bytes per
// chunk.
func NewScratchPool(chunkSize int) *ScratchPool {
	sp := &ScratchPool{}
	sp.pool.New = func() any {
		return arena.New(chunkSize)
	}
	return sp
}

// Get returns a reset, ready-to-use arena.
func (sp *ScratchPool) Get() *arena.Arena {
	a, _ := sp.pool.Get().(*arena.Arena)
	return a
}

// Put resets arena a and returns it to the pool.
func (sp *ScratchPool) Put(a *arena.Arena) {
	if a == nil {
		return
	}
	a.Reset()
	sp.pool.Put(a)
}

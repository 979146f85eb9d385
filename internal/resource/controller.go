package resource

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds launch resource limits.
type Config struct {
	// MaxConcurrentPartitions is the maximum number of partitions (work-groups)
	// resident at once. If 0, defaults to 1.
	MaxConcurrentPartitions int64

	// LaunchesPerSec is the maximum rate at which new partitions may be
	// dispatched. If 0, unlimited.
	LaunchesPerSec int64
}

// Controller bounds how many partitions run concurrently and how fast new
// ones are dispatched.
type Controller struct {
	cfg Config

	slotSem *semaphore.Weighted

	launchLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentPartitions <= 0 {
		cfg.MaxConcurrentPartitions = 1
	}

	c := &Controller{
		cfg:     cfg,
		slotSem: semaphore.NewWeighted(cfg.MaxConcurrentPartitions),
	}

	if cfg.LaunchesPerSec > 0 {
		c.launchLimiter = rate.NewLimiter(rate.Limit(cfg.LaunchesPerSec), int(cfg.LaunchesPerSec))
	}

	return c
}

// AcquireSlot reserves a partition-launch slot, blocking until one is free
// or ctx is done.
func (c *Controller) AcquireSlot(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.slotSem.Acquire(ctx, 1)
}

// TryAcquireSlot attempts to reserve a slot without blocking.
func (c *Controller) TryAcquireSlot() bool {
	if c == nil {
		return true
	}
	return c.slotSem.TryAcquire(1)
}

// ReleaseSlot releases a previously acquired partition-launch slot.
func (c *Controller) ReleaseSlot() {
	if c == nil {
		return
	}
	c.slotSem.Release(1)
}

// WaitLaunch blocks until the launch-rate limiter allows one more
// dispatch, or ctx is done.
func (c *Controller) WaitLaunch(ctx context.Context) error {
	if c == nil || c.launchLimiter == nil {
		return nil
	}
	return c.launchLimiter.Wait(ctx)
}

// TryLaunch attempts to consume one launch token without blocking.
func (c *Controller) TryLaunch() bool {
	if c == nil || c.launchLimiter == nil {
		return true
	}
	return c.launchLimiter.AllowN(time.Now(), 1)
}

// MaxConcurrentPartitions returns the configured concurrency bound.
func (c *Controller) MaxConcurrentPartitions() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MaxConcurrentPartitions
}

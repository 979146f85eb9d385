// Package aggregate turns a converged Fast-SV label array into weighted
// per-cluster measurements: activation-weighted centroid and variance over
// both channels, computed with a numerically stable single-pass (Welford)
// update so the accumulation never has to revisit a cell. Partial sums from
// each work-item's stripe are combined with the parallel-variance merge
// formula rather than a second pass over the raw cells.
package aggregate

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/cellgraph/ccl/internal/bitset"
	"github.com/cellgraph/ccl/internal/cell"
)

// accumulator holds the running weighted mean/variance state for one
// dimension of one cluster, in the form Welford's algorithm needs.
type accumulator struct {
	weight float64
	mean   float64
	m2     float64 // sum of weight*(x-mean)^2, i.e. weighted sum of squares about mean
}

func (a *accumulator) add(weight, x float64) {
	if weight == 0 {
		return
	}
	newWeight := a.weight + weight
	delta := x - a.mean
	r := delta * weight / newWeight
	a.mean += r
	a.m2 += a.weight * delta * r
	a.weight = newWeight
}

// merge combines two independently accumulated partial sums (Chan et al.'s
// parallel variance formula), used to fold per-worker stripes together
// without a second pass over the cells.
func merge(a, b accumulator) accumulator {
	if a.weight == 0 {
		return b
	}
	if b.weight == 0 {
		return a
	}
	total := a.weight + b.weight
	delta := b.mean - a.mean
	mean := a.mean + delta*b.weight/total
	m2 := a.m2 + b.m2 + delta*delta*a.weight*b.weight/total
	return accumulator{weight: total, mean: mean, m2: m2}
}

// cluster is the two-dimensional running aggregate for one component root.
type cluster struct {
	count int64
	c0    accumulator
	c1    accumulator
}

func (c *cluster) add(weight float64, c0, c1 int32) {
	c.count++
	c.c0.add(weight, float64(c0))
	c.c1.add(weight, float64(c1))
}

func mergeCluster(a, b cluster) cluster {
	return cluster{
		count: a.count + b.count,
		c0:    merge(a.c0, b.c0),
		c1:    merge(a.c1, b.c1),
	}
}

// Measurement is one component's weighted centroid and variance, ready to
// be written into a MeasurementBatch output slot.
type Measurement struct {
	ModuleID     uint64
	Label        int32 // local root index within the partition
	Count        int64
	WeightSum    float64
	MeanChannel0 float64
	MeanChannel1 float64
	VarChannel0  float64
	VarChannel1  float64
}

// Reservation hands out a contiguous range of global output slots for a
// partition's measurements in a single atomic operation, instead of one
// fetch-add per component.
type Reservation struct {
	counter *atomic.Int64
}

// NewReservation wraps a shared counter so multiple partitions processed
// concurrently can each reserve a disjoint slot range from it.
func NewReservation(counter *atomic.Int64) Reservation {
	return Reservation{counter: counter}
}

// Take reserves n consecutive slots and returns the index of the first one.
func (r Reservation) Take(n int) int64 {
	if n <= 0 {
		return 0
	}
	return r.counter.Add(int64(n)) - int64(n)
}

// Aggregate computes one Measurement per connected component in f, using
// workers goroutines to accumulate disjoint stripes of cells and merging
// their partial sums afterward. moduleID is attached to every measurement
// since a partition never spans more than one module. If reservation is
// non-zero it is used to assign each measurement a global output slot
// (the second result, parallel to the measurements) via a single
// fetch-add sized to the number of components found, rather than one
// fetch-add per component; with a zero reservation every slot is 0.
func Aggregate(ctx context.Context, s *cell.SoA, f []int32, workers int, reservation Reservation) ([]Measurement, []int64, error) {
	n := s.Len()
	if n == 0 {
		return nil, nil, nil
	}
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	partials := make([][]cluster, workers)
	for w := range partials {
		partials[w] = make([]cluster, n)
	}

	g, gctx := errgroup.WithContext(ctx)
	for tid := 0; tid < workers; tid++ {
		tid := tid
		g.Go(func() error {
			local := partials[tid]
			for i := tid; i < n; i += workers {
				if i%4096 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				root := f[i]
				local[root].add(float64(s.Activation[i]), s.Channel0[i], s.Channel1[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// A cell is a component root iff it points to itself; roots are marked
	// in a bitset here and collected by testing each index's bit below.
	isRoot := bitset.NewFast(n)
	merged := make([]cluster, n)
	for i := 0; i < n; i++ {
		if f[i] == int32(i) {
			isRoot.Set(uint64(i))
		}
	}
	for w := range partials {
		for i := 0; i < n; i++ {
			if partials[w][i].count == 0 {
				continue
			}
			merged[i] = mergeCluster(merged[i], partials[w][i])
		}
	}

	var roots []int
	for i := 0; i < n; i++ {
		if isRoot.Test(uint64(i)) {
			roots = append(roots, i)
		}
	}

	var moduleID uint64
	if n > 0 {
		moduleID = s.ModuleID[0]
	}

	measurements := make([]Measurement, len(roots))
	for idx, root := range roots {
		c := merged[root]
		measurements[idx] = Measurement{
			ModuleID:     moduleID,
			Label:        int32(root),
			Count:        c.count,
			WeightSum:    c.c0.weight,
			MeanChannel0: c.c0.mean,
			MeanChannel1: c.c1.mean,
			VarChannel0:  safeVariance(c.c0),
			VarChannel1:  safeVariance(c.c1),
		}
	}

	slots := make([]int64, len(roots))
	if reservation.counter != nil && len(roots) > 0 {
		start := reservation.Take(len(roots))
		for i := range slots {
			slots[i] = start + int64(i)
		}
	}

	return measurements, slots, nil
}

func safeVariance(a accumulator) float64 {
	if a.weight == 0 {
		return 0
	}
	return a.m2 / a.weight
}

package aggregate

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellgraph/ccl/internal/cell"
)

func TestAggregateEmptyPartition(t *testing.T) {
	s := cell.NewSoA(nil)
	ms, slots, err := Aggregate(context.Background(), s, nil, 4, Reservation{})
	require.NoError(t, err)
	assert.Nil(t, ms)
	assert.Nil(t, slots)
}

func TestAggregateSingleIsolatedCell(t *testing.T) {
	s := cell.NewSoA([]cell.Cell{{Channel0: 5, Channel1: 5, ModuleID: 7, Activation: 3.0}})
	f := []int32{0}
	ms, _, err := Aggregate(context.Background(), s, f, 2, Reservation{})
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, uint64(7), ms[0].ModuleID)
	assert.Equal(t, int64(1), ms[0].Count)
	assert.Equal(t, float64(5), ms[0].MeanChannel0)
	assert.Equal(t, float64(5), ms[0].MeanChannel1)
	assert.Zero(t, ms[0].VarChannel0)
	assert.Zero(t, ms[0].VarChannel1)
}

func TestAggregateUniformWeightMeanIsArithmeticMean(t *testing.T) {
	cells := []cell.Cell{
		{Channel0: 0, Channel1: 0, ModuleID: 1, Activation: 1},
		{Channel0: 2, Channel1: 0, ModuleID: 1, Activation: 1},
		{Channel0: 4, Channel1: 0, ModuleID: 1, Activation: 1},
	}
	s := cell.NewSoA(cells)
	f := []int32{0, 0, 0} // all three already collapsed to root 0
	ms, _, err := Aggregate(context.Background(), s, f, 3, Reservation{})
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, int64(3), ms[0].Count)
	assert.InDelta(t, 2.0, ms[0].MeanChannel0, 1e-9)
	assert.InDelta(t, 0.0, ms[0].MeanChannel1, 1e-9)
}

func TestAggregateWeightedMeanSkewsTowardHeavierCell(t *testing.T) {
	cells := []cell.Cell{
		{Channel0: 0, Channel1: 0, ModuleID: 1, Activation: 1},
		{Channel0: 10, Channel1: 0, ModuleID: 1, Activation: 9},
	}
	s := cell.NewSoA(cells)
	f := []int32{0, 0}
	ms, _, err := Aggregate(context.Background(), s, f, 2, Reservation{})
	require.NoError(t, err)
	require.Len(t, ms, 1)
	// weighted mean = (0*1 + 10*9) / 10 = 9
	assert.InDelta(t, 9.0, ms[0].MeanChannel0, 1e-9)
}

func TestAggregateTwoComponentsProduceTwoMeasurements(t *testing.T) {
	cells := []cell.Cell{
		{Channel0: 0, Channel1: 0, ModuleID: 1, Activation: 1},
		{Channel0: 1, Channel1: 0, ModuleID: 1, Activation: 1},
		{Channel0: 20, Channel1: 0, ModuleID: 1, Activation: 1},
		{Channel0: 21, Channel1: 0, ModuleID: 1, Activation: 1},
	}
	s := cell.NewSoA(cells)
	f := []int32{0, 0, 2, 2}
	ms, _, err := Aggregate(context.Background(), s, f, 4, Reservation{})
	require.NoError(t, err)
	require.Len(t, ms, 2)

	byLabel := map[int32]Measurement{}
	for _, m := range ms {
		byLabel[m.Label] = m
	}
	require.Contains(t, byLabel, int32(0))
	require.Contains(t, byLabel, int32(2))
	assert.InDelta(t, 0.5, byLabel[0].MeanChannel0, 1e-9)
	assert.InDelta(t, 20.5, byLabel[2].MeanChannel0, 1e-9)
}

func TestAggregateVarianceIsZeroForIdenticalPositions(t *testing.T) {
	cells := []cell.Cell{
		{Channel0: 3, Channel1: 3, ModuleID: 1, Activation: 1},
		{Channel0: 3, Channel1: 3, ModuleID: 1, Activation: 5},
	}
	s := cell.NewSoA(cells)
	f := []int32{0, 0}
	ms, _, err := Aggregate(context.Background(), s, f, 2, Reservation{})
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Zero(t, ms[0].VarChannel0)
	assert.Zero(t, ms[0].VarChannel1)
}

func TestAggregateReservationHandsOutDisjointContiguousSlots(t *testing.T) {
	cells := []cell.Cell{
		{Channel0: 0, Channel1: 0, ModuleID: 1, Activation: 1},
		{Channel0: 20, Channel1: 0, ModuleID: 1, Activation: 1},
	}
	s := cell.NewSoA(cells)
	f := []int32{0, 1}

	var counter atomic.Int64
	r := NewReservation(&counter)
	ms, slots, err := Aggregate(context.Background(), s, f, 2, r)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	require.Len(t, slots, 2)
	assert.ElementsMatch(t, []int64{0, 1}, slots)

	// A second partition reserving afterward gets a disjoint range.
	s2 := cell.NewSoA([]cell.Cell{{Channel0: 0, Channel1: 0, ModuleID: 2, Activation: 1}})
	_, slots2, err := Aggregate(context.Background(), s2, []int32{0}, 1, r)
	require.NoError(t, err)
	require.Len(t, slots2, 1)
	assert.Equal(t, int64(2), slots2[0])
}

func TestAggregateRespectsContextCancellation(t *testing.T) {
	n := 10000
	cells := make([]cell.Cell, n)
	f := make([]int32, n)
	for i := range cells {
		cells[i] = cell.Cell{Channel0: int32(i), Channel1: 0, ModuleID: 1, Activation: 1}
		f[i] = int32(i)
	}
	s := cell.NewSoA(cells)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Aggregate(ctx, s, f, 4, Reservation{})
	require.Error(t, err)
}

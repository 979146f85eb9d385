package label

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellgraph/ccl/internal/adjacency"
	"github.com/cellgraph/ccl/internal/arena"
	"github.com/cellgraph/ccl/internal/cell"
)

func labelsOf(t *testing.T, cells []cell.Cell, threadsPerBlock int) []int32 {
	t.Helper()
	s := cell.NewSoA(cells)
	ar := arena.New(1 << 16)
	graph, err := adjacency.Build(s, ar)
	require.NoError(t, err)
	f, _, err := Propagate(context.Background(), s.Len(), graph, threadsPerBlock, ar, nil)
	require.NoError(t, err)
	return f
}

func TestPropagateLinearRunConvergesToSingleLabel(t *testing.T) {
	cells := []cell.Cell{
		{Channel0: 0, Channel1: 0, ModuleID: 1},
		{Channel0: 1, Channel1: 0, ModuleID: 1},
		{Channel0: 2, Channel1: 0, ModuleID: 1},
		{Channel0: 3, Channel1: 0, ModuleID: 1},
	}
	f := labelsOf(t, cells, 2)
	for i := 1; i < len(f); i++ {
		assert.Equal(t, f[0], f[i])
	}
}

func TestPropagateIsolatedCellsKeepOwnLabel(t *testing.T) {
	cells := []cell.Cell{
		{Channel0: 0, Channel1: 0, ModuleID: 1},
		{Channel0: 10, Channel1: 10, ModuleID: 1},
		{Channel0: 20, Channel1: 20, ModuleID: 1},
	}
	f := labelsOf(t, cells, 4)
	assert.Equal(t, int32(0), f[0])
	assert.Equal(t, int32(1), f[1])
	assert.Equal(t, int32(2), f[2])
}

func TestPropagateTwoSeparateClustersGetDistinctLabels(t *testing.T) {
	cells := []cell.Cell{
		{Channel0: 0, Channel1: 0, ModuleID: 1},
		{Channel0: 1, Channel1: 0, ModuleID: 1},
		{Channel0: 20, Channel1: 0, ModuleID: 1},
		{Channel0: 21, Channel1: 0, ModuleID: 1},
	}
	f := labelsOf(t, cells, 3)
	assert.Equal(t, f[0], f[1])
	assert.Equal(t, f[2], f[3])
	assert.NotEqual(t, f[0], f[2])
}

func TestPropagateLabelsToSmallestIndexInComponent(t *testing.T) {
	cells := []cell.Cell{
		{Channel0: 0, Channel1: 0, ModuleID: 1},
		{Channel0: 1, Channel1: 0, ModuleID: 1},
		{Channel0: 2, Channel1: 0, ModuleID: 1},
	}
	f := labelsOf(t, cells, 1)
	assert.Equal(t, int32(0), f[0])
	assert.Equal(t, int32(0), f[1])
	assert.Equal(t, int32(0), f[2])
}

func TestPropagateEmptyInput(t *testing.T) {
	s := cell.NewSoA(nil)
	ar := arena.New(4096)
	graph, err := adjacency.Build(s, ar)
	require.NoError(t, err)
	f, iterations, err := Propagate(context.Background(), 0, graph, 8, ar, nil)
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.Zero(t, iterations)
}

func TestPropagateInvokesTraceEveryIteration(t *testing.T) {
	cells := []cell.Cell{
		{Channel0: 0, Channel1: 0, ModuleID: 1},
		{Channel0: 1, Channel1: 0, ModuleID: 1},
		{Channel0: 2, Channel1: 0, ModuleID: 1},
		{Channel0: 3, Channel1: 0, ModuleID: 1},
	}
	s := cell.NewSoA(cells)
	ar := arena.New(1 << 16)
	graph, err := adjacency.Build(s, ar)
	require.NoError(t, err)

	var calls int
	_, iterations, err := Propagate(context.Background(), s.Len(), graph, 1, ar, func(iteration int, sumGF int64) {
		calls++
		assert.Equal(t, calls, iteration)
	})
	require.NoError(t, err)
	assert.Equal(t, iterations, calls)
	assert.Positive(t, iterations)
}

func TestPropagateRespectsContextCancellation(t *testing.T) {
	cells := []cell.Cell{
		{Channel0: 0, Channel1: 0, ModuleID: 1},
		{Channel0: 1, Channel1: 0, ModuleID: 1},
	}
	s := cell.NewSoA(cells)
	ar := arena.New(4096)
	graph, err := adjacency.Build(s, ar)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = Propagate(ctx, s.Len(), graph, 1, ar, nil)
	require.Error(t, err)
}

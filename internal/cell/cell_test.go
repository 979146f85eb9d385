package cell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSoARoundTrips(t *testing.T) {
	cells := []Cell{
		{Channel0: 1, Channel1: 0, ModuleID: 1, Activation: 1.5},
		{Channel0: 2, Channel1: 0, ModuleID: 1, Activation: 2.5},
	}
	s := NewSoA(cells)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, int32(1), s.Channel0[0])
	assert.Equal(t, int32(2), s.Channel0[1])
	assert.Equal(t, float32(2.5), s.Activation[1])
}

func TestValidateSortedAcceptsOrderedInput(t *testing.T) {
	cells := []Cell{
		{Channel0: 0, Channel1: 0, ModuleID: 1},
		{Channel0: 1, Channel1: 0, ModuleID: 1},
		{Channel0: 0, Channel1: 1, ModuleID: 1},
		{Channel0: 0, Channel1: 0, ModuleID: 2},
	}
	require.NoError(t, ValidateSorted(NewSoA(cells)))
}

func TestValidateSortedRejectsChannel1Regression(t *testing.T) {
	cells := []Cell{
		{Channel0: 0, Channel1: 1, ModuleID: 1},
		{Channel0: 0, Channel1: 0, ModuleID: 1},
	}
	err := ValidateSorted(NewSoA(cells))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotSorted)
}

func TestValidateSortedRejectsDuplicateCell(t *testing.T) {
	cells := []Cell{
		{Channel0: 0, Channel1: 0, ModuleID: 1},
		{Channel0: 0, Channel1: 0, ModuleID: 1},
	}
	err := ValidateSorted(NewSoA(cells))
	require.Error(t, err)
}

func TestValidateSortedRejectsModuleRegression(t *testing.T) {
	cells := []Cell{
		{Channel0: 0, Channel1: 0, ModuleID: 2},
		{Channel0: 0, Channel1: 0, ModuleID: 1},
	}
	err := ValidateSorted(NewSoA(cells))
	require.Error(t, err)
}

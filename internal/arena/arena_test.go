package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsChunkSize(t *testing.T) {
	a := New(0)
	assert.Equal(t, DefaultChunkSize, a.chunkSize)
	assert.Equal(t, DefaultAlignment, a.alignment)
}

func TestAllocInt32SliceIsZeroedAndUsable(t *testing.T) {
	a := New(4096)
	s, err := a.AllocInt32Slice(16)
	require.NoError(t, err)
	require.Len(t, s, 16)
	for _, v := range s {
		assert.Zero(t, v)
	}
	for i := range s {
		s[i] = int32(i)
	}
	assert.Equal(t, int32(15), s[15])
}

func TestAllocUint8Slice(t *testing.T) {
	a := New(4096)
	s, err := a.AllocUint8Slice(8)
	require.NoError(t, err)
	require.Len(t, s, 8)
}

func TestAllocCrossesChunkBoundary(t *testing.T) {
	a := New(64)
	_, err := a.AllocInt32Slice(8) // 32 bytes
	require.NoError(t, err)
	_, err = a.AllocInt32Slice(8) // another 32 bytes, fits exactly
	require.NoError(t, err)
	// This allocation no longer fits in the first chunk and forces a new one.
	s, err := a.AllocInt32Slice(4)
	require.NoError(t, err)
	require.Len(t, s, 4)
	assert.Len(t, a.chunks, 2)
}

func TestAllocRejectsOversizedRequest(t *testing.T) {
	a := New(32)
	_, err := a.AllocInt32Slice(100)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllocationFailed)
}

func TestResetReclaimsSpaceAndDropsExtraChunks(t *testing.T) {
	a := New(64)
	_, err := a.AllocInt32Slice(8)
	require.NoError(t, err)
	_, err = a.AllocInt32Slice(8)
	require.NoError(t, err)
	_, err = a.AllocInt32Slice(4) // forces a second chunk
	require.NoError(t, err)
	require.Len(t, a.chunks, 2)

	a.Reset()
	assert.Len(t, a.chunks, 1)

	s, err := a.AllocInt32Slice(8)
	require.NoError(t, err)
	require.Len(t, s, 8)
}

func TestAllocIsConcurrencySafe(t *testing.T) {
	a := New(DefaultChunkSize)
	const n = 200
	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_, err := a.AllocInt32Slice(4)
			assert.NoError(t, err)
		}()
	}
	for i := 0; i < n; i++ {
		<-done
	}
}

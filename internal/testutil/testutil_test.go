package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bitheap/internal/compressor"
)

func TestRecordingOperator_DeclareTwice(t *testing.T) {
	op := NewRecordingOperator(nil)

	name, err := op.Declare("a", 0)
	require.NoError(t, err)
	assert.Equal(t, "a", name)
	assert.True(t, op.Declared("a"))

	_, err = op.Declare("a", 3)
	assert.Error(t, err)
	assert.Len(t, op.Signals, 1)
}

func TestRecordingOperator_DefaultTarget(t *testing.T) {
	op := NewRecordingOperator(nil)
	require.NotNil(t, op.Target())
	assert.Equal(t, "virtex5", op.Target().Name)
}

func TestRecordingOperator_UseCompressorOnce(t *testing.T) {
	op := NewRecordingOperator(nil)
	op.UseCompressor(compressor.Compressor{Inputs0: 3})
	op.UseCompressor(compressor.Compressor{Inputs0: 6})
	op.UseCompressor(compressor.Compressor{Inputs0: 3})
	assert.Len(t, op.Compressors, 2)
}

func TestRecordingOperator_Cycle(t *testing.T) {
	op := NewRecordingOperator(nil)
	op.SetCycle(2, 0.5)
	assert.Equal(t, 2, op.CurrentStage())
	assert.Equal(t, 0.5, op.CurrentTimingOffset())
}

func TestRandomHeap_Deterministic(t *testing.T) {
	a := RandomHeap(7, 16, 100)
	b := RandomHeap(7, 16, 100)
	c := RandomHeap(8, 16, 100)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	for _, bit := range a.Bits {
		assert.GreaterOrEqual(t, bit.Weight, 0)
		assert.Less(t, bit.Weight, 16)
	}
}

func TestHeapSpec_Sum(t *testing.T) {
	spec := HeapSpec{
		MaxWeight: 3,
		Bits: []RandomBit{
			{Weight: 0, Value: true},
			{Weight: 1, Value: true},
			{Weight: 2, Value: false},
			{Weight: 2, Value: true},
		},
		Constants: []int{2},
	}
	// 1 + 2 + 4 + 4 = 11, mod 8 = 3
	assert.Equal(t, int64(3), spec.Sum().Int64())
}

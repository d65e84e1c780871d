package compressor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_LUT6(t *testing.T) {
	cat, err := Build(6)
	require.NoError(t, err)

	want := []Compressor{
		{6, 0},
		{5, 0},
		{4, 1}, {4, 0},
		{3, 1}, {3, 0},
	}
	assert.Equal(t, want, cat.Entries())
	assert.Equal(t, Compressor{Inputs0: 6, Inputs1: 0}, cat.Widest())
	assert.Equal(t, 6, cat.Limit())
}

func TestBuild_LUT4(t *testing.T) {
	cat, err := Build(4)
	require.NoError(t, err)
	assert.Equal(t, []Compressor{{4, 0}, {3, 0}}, cat.Entries())
}

func TestBuild_LUT3(t *testing.T) {
	cat, err := Build(3)
	require.NoError(t, err)
	assert.Equal(t, []Compressor{{3, 0}}, cat.Entries())
}

func TestBuild_EveryEntryFits(t *testing.T) {
	for limit := MinLimit; limit <= 12; limit++ {
		cat, err := Build(limit)
		require.NoError(t, err)
		require.Positive(t, cat.Len())

		prev := cat.At(0)
		for i := 0; i < cat.Len(); i++ {
			c := cat.At(i)
			assert.LessOrEqual(t, c.Inputs0+2*c.Inputs1, limit, "limit %d entry %s", limit, c)
			assert.GreaterOrEqual(t, c.Inputs0, MinLimit)
			if i > 0 {
				// descending inputs0, ties broken by descending inputs1
				ordered := c.Inputs0 < prev.Inputs0 || (c.Inputs0 == prev.Inputs0 && c.Inputs1 < prev.Inputs1)
				assert.True(t, ordered, "limit %d: %s after %s", limit, c, prev)
			}
			prev = c
		}

		// every height 3..limit has a single-column exact match
		for h := MinLimit; h <= limit; h++ {
			assert.Contains(t, cat.Entries(), Compressor{Inputs0: h})
		}
	}
}

func TestBuild_LimitTooSmall(t *testing.T) {
	for _, limit := range []int{-1, 0, 1, 2} {
		_, err := Build(limit)
		require.Error(t, err)
		assert.True(t, IsLimitError(err))

		var le *LimitError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, limit, le.Limit)
		assert.Contains(t, err.Error(), "minimum of 3")
	}
}

func TestMustBuild_Panics(t *testing.T) {
	assert.Panics(t, func() { MustBuild(2) })
	assert.NotPanics(t, func() { MustBuild(6) })
}

func TestCatalog_EntriesIsCopy(t *testing.T) {
	cat := MustBuild(6)
	e := cat.Entries()
	e[0] = Compressor{Inputs0: 99}
	assert.Equal(t, Compressor{Inputs0: 6}, cat.Widest())
}

func TestNewCustom(t *testing.T) {
	cat, err := NewCustom(6, []Compressor{{6, 0}, {3, 0}})
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())

	_, err = NewCustom(6, []Compressor{{5, 1}})
	assert.Error(t, err)

	_, err = NewCustom(6, nil)
	assert.Error(t, err)

	_, err = NewCustom(2, []Compressor{{2, 0}})
	assert.True(t, IsLimitError(err))
}

func TestCompressor_Outputs(t *testing.T) {
	tests := []struct {
		c       Compressor
		max     int
		outputs int
	}{
		{Compressor{3, 0}, 3, 2},
		{Compressor{3, 1}, 5, 3},
		{Compressor{4, 1}, 6, 3},
		{Compressor{6, 0}, 6, 3},
		{Compressor{7, 0}, 7, 3},
		{Compressor{6, 1}, 8, 4},
	}
	for _, tt := range tests {
		t.Run(tt.c.Kind(), func(t *testing.T) {
			assert.Equal(t, tt.max, tt.c.MaxValue())
			assert.Equal(t, tt.outputs, tt.c.Outputs())
		})
	}
}

func TestCompressor_Names(t *testing.T) {
	c := Compressor{Inputs0: 4, Inputs1: 1}
	assert.Equal(t, "Compressor_4_1", c.Name())
	assert.Equal(t, "4_1", c.Kind())
	assert.Equal(t, "(4,1)", c.String())
	assert.Equal(t, 5, c.Inputs())
	assert.Equal(t, 7, c.Count(3, 2))
}

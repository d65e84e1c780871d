package sim_test

import (
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bitheap/internal/bitheap"
	"github.com/roach88/bitheap/internal/sim"
	"github.com/roach88/bitheap/internal/testutil"
)

func quiet() bitheap.Option {
	return bitheap.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// threePlusTwo compresses three bits at weight 0 and two at weight 1.
func threePlusTwo(t *testing.T) (*bitheap.Plan, []bitheap.BitID) {
	t.Helper()
	h, err := bitheap.New(testutil.NewRecordingOperator(nil), 4, quiet())
	require.NoError(t, err)

	var ids []bitheap.BitID
	for _, w := range []int{0, 0, 0, 1, 1} {
		id, err := h.AddBit(w, "x", "")
		require.NoError(t, err)
		ids = append(ids, id)
	}
	res, err := h.Compress()
	require.NoError(t, err)
	return res.Plan, ids
}

func TestEvaluate_AllAssignments(t *testing.T) {
	plan, ids := threePlusTwo(t)

	for mask := 0; mask < 1<<len(ids); mask++ {
		ones := roaring.New()
		want := int64(0)
		for i, id := range ids {
			if mask>>i&1 == 1 {
				ones.Add(uint32(id))
				want += int64(1) << plan.Sources[i].Weight
			}
		}

		got, err := sim.Evaluate(plan, ones)
		require.NoError(t, err)
		assert.Equal(t, want, got.Int64(), "mask %05b", mask)
		assert.Equal(t, 0, sim.Expected(plan, ones).Cmp(got))
	}
}

func TestEvaluate_NilAssignment(t *testing.T) {
	plan, _ := threePlusTwo(t)

	got, err := sim.Evaluate(plan, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Int64())
}

func TestEvaluate_ConstantsAreOne(t *testing.T) {
	h, err := bitheap.New(testutil.NewRecordingOperator(nil), 3, quiet())
	require.NoError(t, err)
	_, err = h.AddConstantOneBit(0)
	require.NoError(t, err)
	_, err = h.AddConstantOneBit(2)
	require.NoError(t, err)
	x, err := h.AddBit(0, "x", "")
	require.NoError(t, err)
	res, err := h.Compress()
	require.NoError(t, err)

	got, err := sim.Evaluate(res.Plan, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Int64())

	ones := roaring.New()
	ones.Add(uint32(x))
	got, err = sim.Evaluate(res.Plan, ones)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got.Int64())
}

func TestEvaluate_Wraps(t *testing.T) {
	spec := testutil.HeapSpec{MaxWeight: 2}
	for i := 0; i < 7; i++ {
		spec.Bits = append(spec.Bits, testutil.RandomBit{Weight: 1, Value: true})
	}
	h, err := bitheap.New(testutil.NewRecordingOperator(nil), spec.MaxWeight, quiet())
	require.NoError(t, err)
	ones, err := spec.Build(h)
	require.NoError(t, err)
	res, err := h.Compress()
	require.NoError(t, err)

	got, err := sim.Evaluate(res.Plan, ones)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2), got) // 14 mod 4
	assert.Equal(t, 0, spec.Sum().Cmp(got))
}

func TestEvaluate_RejectsNonSourceBits(t *testing.T) {
	plan, _ := threePlusTwo(t)

	inner := roaring.New()
	inner.Add(uint32(len(plan.Sources))) // first compressor output
	_, err := sim.Evaluate(plan, inner)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a source bit")

	outside := roaring.New()
	outside.Add(uint32(plan.ArenaSize + 10))
	_, err = sim.Evaluate(plan, outside)
	require.Error(t, err)
}

func TestEvaluate_UnknownStep(t *testing.T) {
	plan := &bitheap.Plan{
		MaxWeight: 1,
		ArenaSize: 1,
		Steps:     []bitheap.Step{{Kind: "bogus"}},
	}
	_, err := sim.Evaluate(plan, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown step kind")
}

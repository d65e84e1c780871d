package harness

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bitheap/internal/metrics"
	"github.com/roach88/bitheap/internal/testutil"
)

func newHarness(opts ...Option) *Harness {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(opts...)
}

func ptr[T any](v T) *T {
	return &v
}

func TestRun_Testdata(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)

	h := newHarness()
	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			res, err := h.Run(context.Background(), s)
			require.NoError(t, err)
			assert.True(t, res.Pass, "errors: %v", res.Errors)
		})
	}
}

func TestRunWithGolden_ThreePlusTwo(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/three_plus_two.yaml")
	require.NoError(t, err)

	res, err := RunWithGolden(t, newHarness(), s)
	require.NoError(t, err)
	assert.True(t, res.Pass, "errors: %v", res.Errors)
	assert.Equal(t, "7", res.Value)
	assert.Equal(t, 2, res.Stage)
}

func TestRun_ReportsMismatches(t *testing.T) {
	s := &Scenario{
		Name:        "mismatch",
		Description: "wrong expectations",
		MaxWeight:   4,
		Bits:        []BitGroup{{Weight: 0, Value: 1, Count: 3}},
		Expect: Expect{
			Value:       ptr(uint64(4)),
			Compressors: ptr(0),
			MinWeight:   ptr(2),
			AdderWidth:  ptr(1),
		},
	}

	res, err := newHarness().Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, res.Pass)
	assert.Equal(t, "3", res.Value)
	require.Len(t, res.Errors, 4)
	assert.Contains(t, res.Errors[0], "value: expected 4, got 3")
}

func TestRun_ExpectedErrorNotRaised(t *testing.T) {
	s := &Scenario{
		Name:        "no_error",
		Description: "succeeds",
		MaxWeight:   2,
		Bits:        []BitGroup{{Weight: 0, Value: 1}},
		Expect:      Expect{Error: "NO_PROGRESS"},
	}

	res, err := newHarness().Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, res.Pass)
	assert.Contains(t, res.Errors[0], "reduction succeeded")
}

func TestRun_WrongErrorCode(t *testing.T) {
	s := &Scenario{
		Name:        "wrong_code",
		Description: "out of range, not invalid width",
		MaxWeight:   2,
		Bits:        []BitGroup{{Weight: 5, Value: 1}},
		Expect:      Expect{Error: "INVALID_MAX_WEIGHT"},
	}

	res, err := newHarness().Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, res.Pass)
	assert.Equal(t, "WEIGHT_OUT_OF_RANGE", res.ErrorCode)
	assert.Empty(t, res.VHDL)
}

func TestRun_UnexpectedError(t *testing.T) {
	s := &Scenario{
		Name:        "unexpected",
		Description: "out of range",
		MaxWeight:   2,
		Bits:        []BitGroup{{Weight: 2, Value: 1}},
		Expect:      Expect{Value: ptr(uint64(0))},
	}

	res, err := newHarness().Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, res.Pass)
	assert.Contains(t, res.Errors[0], "reduction failed")
}

func TestRun_SetupErrors(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.Run(ctx, &Scenario{Name: "t", Target: "nosuch", MaxWeight: 1})
	assert.Error(t, err)

	_, err = h.Run(ctx, &Scenario{Name: "bad name", MaxWeight: 1})
	assert.Error(t, err)

	_, err = h.Run(ctx, &Scenario{Name: "t", LUTInputs: 2, MaxWeight: 1})
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = h.Run(cancelled, &Scenario{Name: "t", MaxWeight: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_LUTInputsOverride(t *testing.T) {
	s := &Scenario{
		Name:        "small_luts",
		Description: "eight ones with three-input compressors",
		LUTInputs:   3,
		MaxWeight:   5,
		Bits:        []BitGroup{{Weight: 0, Value: 1, Count: 8}},
		Expect:      Expect{Value: ptr(uint64(8))},
	}

	res, err := newHarness().Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, res.Pass, "errors: %v", res.Errors)
	for _, c := range res.Plan.Compressors() {
		assert.LessOrEqual(t, c.Inputs(), 3)
	}
}

func TestRun_Random(t *testing.T) {
	h := newHarness()
	for seed := uint64(0); seed < 16; seed++ {
		spec := testutil.RandomHeap(seed, 12, 40)
		s := &Scenario{
			Name:         "random",
			Description:  "random heap",
			MaxWeight:    spec.MaxWeight,
			ConstantOnes: spec.Constants,
			Expect:       Expect{Value: ptr(spec.Sum().Uint64())},
		}
		for _, b := range spec.Bits {
			v := 0
			if b.Value {
				v = 1
			}
			s.Bits = append(s.Bits, BitGroup{
				Weight:       b.Weight,
				Value:        v,
				Stage:        b.Stage,
				TimingOffset: b.TimingOffset,
			})
		}

		res, err := h.Run(context.Background(), s)
		require.NoError(t, err)
		assert.True(t, res.Pass, "seed %d: %v", seed, res.Errors)
	}
}

func TestRunAll_OrderAndMetrics(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)

	m := metrics.New()
	h := newHarness(WithMetrics(m))
	results, err := h.RunAll(context.Background(), scenarios, 2)
	require.NoError(t, err)
	require.Len(t, results, len(scenarios))

	compressed := 0
	for i, r := range results {
		assert.Equal(t, scenarios[i].Name, r.Name)
		assert.True(t, r.Pass, "%s: %v", r.Name, r.Errors)
		if r.ErrorCode == "" {
			compressed++
		}
	}

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "bitheap_heaps_compressed_total" {
			assert.Equal(t, float64(compressed), f.GetMetric()[0].GetCounter().GetValue())
		}
	}
}

func TestRunAll_SetupErrorAborts(t *testing.T) {
	scenarios := []*Scenario{
		{Name: "ok", Description: "d", MaxWeight: 1, Expect: Expect{Value: ptr(uint64(0))}},
		{Name: "bad", Description: "d", Target: "nosuch", MaxWeight: 1},
	}
	_, err := newHarness().RunAll(context.Background(), scenarios, 0)
	assert.Error(t, err)
}

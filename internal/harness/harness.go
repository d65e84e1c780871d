package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/bitheap/internal/bitheap"
	"github.com/roach88/bitheap/internal/compressor"
	"github.com/roach88/bitheap/internal/metrics"
	"github.com/roach88/bitheap/internal/sim"
	"github.com/roach88/bitheap/internal/target"
	"github.com/roach88/bitheap/internal/vhdl"
)

// Result is the outcome of one scenario.
type Result struct {
	Name string `json:"name"`

	// Pass is true when every expectation holds.
	Pass bool `json:"pass"`

	// Errors contains validation error messages.
	Errors []string `json:"errors,omitempty"`

	Value       string `json:"value,omitempty"` // decimal; heaps may exceed 64 bits
	Compressors int    `json:"compressors"`
	MinWeight   int    `json:"min_weight"`
	AdderWidth  int    `json:"adder_width"`
	Stage       int    `json:"stage"`

	// ErrorCode is set when the reduction failed with a contract error.
	ErrorCode string `json:"error_code,omitempty"`

	// VHDL is the generated design, empty when the reduction failed.
	VHDL string `json:"-"`

	// Plan is the reduction plan, nil when the reduction failed.
	Plan *bitheap.Plan `json:"-"`
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Harness runs scenarios. It caches one catalog per LUT limit; catalogs are
// immutable and shared by every heap built with the same limit.
type Harness struct {
	logger  *slog.Logger
	metrics *metrics.Collector

	mu       sync.Mutex
	catalogs map[int]*compressor.Catalog
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger used by the harness and its heaps.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// WithMetrics records the heaps of every scenario in m.
func WithMetrics(m *metrics.Collector) Option {
	return func(h *Harness) {
		h.metrics = m
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		logger:   slog.Default(),
		catalogs: make(map[int]*compressor.Catalog),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Harness) catalog(limit int) (*compressor.Catalog, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.catalogs[limit]; ok {
		return c, nil
	}
	c, err := compressor.Build(limit)
	if err != nil {
		return nil, err
	}
	h.catalogs[limit] = c
	return c, nil
}

// Run executes one scenario. Expectation mismatches are reported in the
// Result; the error return is for scenarios that cannot be set up.
func (h *Harness) Run(ctx context.Context, s *Scenario) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tgt, err := target.Resolve(s.Target, "")
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	limit := tgt.LUTInputs
	if s.LUTInputs > 0 {
		limit = s.LUTInputs
	}
	cat, err := h.catalog(limit)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	entity, err := vhdl.NewEntity(s.Name, tgt)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	res := &Result{Name: s.Name, Pass: true}
	plan, err := h.reduce(s, entity, cat, res)
	if err != nil {
		var ce *bitheap.ContractError
		if !errors.As(err, &ce) {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		res.ErrorCode = string(ce.Code)
		if s.Expect.Error == "" {
			res.addError("reduction failed: %v", err)
		} else if s.Expect.Error != res.ErrorCode {
			res.addError("expected error %s, got %v", s.Expect.Error, err)
		}
		h.logger.Debug("scenario reduction failed", "scenario", s.Name, "code", res.ErrorCode)
		return res, nil
	}
	if s.Expect.Error != "" {
		res.addError("expected error %s, reduction succeeded", s.Expect.Error)
	}

	res.Plan = plan
	res.VHDL = entity.Render()
	h.check(s, res)

	h.logger.Debug("scenario finished", "scenario", s.Name, "pass", res.Pass)
	return res, nil
}

// reduce builds the heap of s into entity and compresses it. It records the
// plan figures in res and returns the plan.
func (h *Harness) reduce(s *Scenario, entity *vhdl.Entity, cat *compressor.Catalog, res *Result) (*bitheap.Plan, error) {
	heap, err := bitheap.New(entity, s.MaxWeight,
		bitheap.WithCatalog(cat),
		bitheap.WithLogger(h.logger),
		bitheap.WithMetrics(h.metrics),
	)
	if err != nil {
		return nil, err
	}
	if err := entity.AddOutput("R", s.MaxWeight); err != nil {
		return nil, err
	}

	ones := roaring.New()
	for _, g := range s.Bits {
		expr := g.Expr
		if expr == "" {
			expr = fmt.Sprintf("'%d'", g.Value)
		}
		for i := 0; i < g.bitCount(); i++ {
			id, err := heap.AddBitAt(g.Weight, expr, "", g.Stage, g.TimingOffset)
			if err != nil {
				return nil, err
			}
			if g.Value == 1 {
				ones.Add(uint32(id))
			}
		}
	}
	for _, w := range s.ConstantOnes {
		if _, err := heap.AddConstantOneBit(w); err != nil {
			return nil, err
		}
	}

	out, err := heap.Compress()
	if err != nil {
		return nil, err
	}
	entity.Emit(fmt.Sprintf("R <= %s;\n", out.Signal))

	value, err := sim.Evaluate(out.Plan, ones)
	if err != nil {
		return nil, err
	}
	if want := sim.Expected(out.Plan, ones); want.Cmp(value) != 0 {
		res.addError("plan computes %s but the bits sum to %s", value, want)
	}

	res.Value = value.String()
	res.Compressors = out.Plan.CompressorTotal()
	res.MinWeight = out.Plan.MinWeight
	res.AdderWidth = out.Plan.AdderWidth()
	res.Stage = out.Stage
	return out.Plan, nil
}

func (h *Harness) check(s *Scenario, res *Result) {
	e := s.Expect
	if e.Value != nil {
		want := new(big.Int).SetUint64(*e.Value)
		if want.String() != res.Value {
			res.addError("value: expected %s, got %s", want, res.Value)
		}
	}
	if e.Compressors != nil && *e.Compressors != res.Compressors {
		res.addError("compressors: expected %d, got %d", *e.Compressors, res.Compressors)
	}
	if e.MinWeight != nil && *e.MinWeight != res.MinWeight {
		res.addError("min_weight: expected %d, got %d", *e.MinWeight, res.MinWeight)
	}
	if e.AdderWidth != nil && *e.AdderWidth != res.AdderWidth {
		res.addError("adder_width: expected %d, got %d", *e.AdderWidth, res.AdderWidth)
	}
}

// RunAll executes scenarios concurrently, at most limit at a time (no limit
// when limit <= 0). Results are returned in scenario order.
func (h *Harness) RunAll(ctx context.Context, scenarios []*Scenario, limit int) ([]*Result, error) {
	results := make([]*Result, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, s := range scenarios {
		g.Go(func() error {
			r, err := h.Run(ctx, s)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

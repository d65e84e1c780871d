package bitheap

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/roach88/bitheap/internal/compressor"
	"github.com/roach88/bitheap/internal/ir"
	"github.com/roach88/bitheap/internal/metrics"
)

// SumSignal is the name of the summed word, before any heap name prefix.
const SumSignal = "CompressionResult"

// BitHeap is a set of weighted bits reduced once to a binary word.
//
// A heap is owned by a single operator and is not safe for concurrent use.
// The catalog it reduces with may be shared between heaps.
type BitHeap struct {
	op      Operator
	cs      *columnStore
	catalog *compressor.Catalog
	logger  *slog.Logger
	metrics *metrics.Collector
	name    string
	budget  int // 0 selects the default

	sources   []BitID
	finalized bool
	result    *Result
}

// Option configures a BitHeap.
type Option func(*BitHeap)

// WithCatalog reduces with c instead of the catalog of the operator's target.
func WithCatalog(c *compressor.Catalog) Option {
	return func(h *BitHeap) {
		h.catalog = c
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *BitHeap) {
		h.logger = l
	}
}

// WithMetrics records heap activity in m.
func WithMetrics(m *metrics.Collector) Option {
	return func(h *BitHeap) {
		h.metrics = m
	}
}

// WithStepBudget caps the number of compressor applications.
// Default: the number of unconsumed bits when Compress starts, plus one.
func WithStepBudget(n int) Option {
	return func(h *BitHeap) {
		h.budget = n
	}
}

// WithName prefixes every signal of the heap with name and an underscore,
// so that one operator can own several heaps.
func WithName(name string) Option {
	return func(h *BitHeap) {
		h.name = name
	}
}

// Result describes the summed word produced by Compress.
type Result struct {
	// Signal is the declared identifier of the word.
	Signal string

	// Width is the word width, equal to the heap's maxWeight.
	Width int

	// Stage and TimingOffset give when the word becomes valid.
	Stage        int
	TimingOffset float64

	Plan *Plan
}

// Range returns the VHDL index range of the word.
func (r *Result) Range() string {
	return fmt.Sprintf("(%d downto 0)", r.Width-1)
}

// Slice returns the expression selecting bits hi downto lo of the word.
func (r *Result) Slice(hi, lo int) string {
	return fmt.Sprintf("%s(%d downto %d)", r.Signal, hi, lo)
}

// New creates a heap of maxWeight columns owned by op.
func New(op Operator, maxWeight int, opts ...Option) (*BitHeap, error) {
	if maxWeight <= 0 {
		return nil, &ContractError{
			Code:      ErrCodeInvalidMaxWeight,
			Message:   "heap must have at least one column",
			Weight:    -1,
			MaxWeight: maxWeight,
		}
	}
	if op == nil {
		return nil, errors.New("bitheap: nil operator")
	}

	h := &BitHeap{
		op:     op,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}

	if h.catalog == nil {
		t := op.Target()
		if t == nil {
			return nil, errors.New("bitheap: operator has no target")
		}
		c, err := t.Catalog()
		if err != nil {
			return nil, fmt.Errorf("bitheap: %w", err)
		}
		h.catalog = c
	}

	h.cs = newColumnStore(maxWeight, h.prefix())
	h.logger.Debug("bit heap created",
		"name", h.name,
		"max_weight", maxWeight,
		"lut_inputs", h.catalog.Limit(),
	)
	return h, nil
}

// MustNew is like New but panics on error.
// Use only in tests or when the arguments are known to be valid.
func MustNew(op Operator, maxWeight int, opts ...Option) *BitHeap {
	h, err := New(op, maxWeight, opts...)
	if err != nil {
		panic(err)
	}
	return h
}

func (h *BitHeap) prefix() string {
	if h.name == "" {
		return ""
	}
	return h.name + "_"
}

// MaxWeight returns the number of columns.
func (h *BitHeap) MaxWeight() int {
	return h.cs.maxWeight()
}

// SumName returns the name of the summed word signal.
func (h *BitHeap) SumName() string {
	return h.prefix() + SumSignal
}

// Catalog returns the compressor catalog the heap reduces with.
func (h *BitHeap) Catalog() *compressor.Catalog {
	return h.catalog
}

// AddBit adds a bit of weight 2^weight whose value is expr, stamped with the
// operator's current stage and timing offset. The bit is declared and
// assigned immediately.
func (h *BitHeap) AddBit(weight int, expr, comment string) (BitID, error) {
	return h.AddBitAt(weight, expr, comment, h.op.CurrentStage(), h.op.CurrentTimingOffset())
}

// AddBitAt is AddBit with an explicit arrival time.
func (h *BitHeap) AddBitAt(weight int, expr, comment string, stage int, offset float64) (BitID, error) {
	return h.add(weight, expr, comment, stage, offset, OriginInput)
}

// AddConstantOneBit adds the value 2^weight, as used for rounding and
// sign extension.
func (h *BitHeap) AddConstantOneBit(weight int) (BitID, error) {
	return h.add(weight, "'1'", "constant one", 0, 0, OriginConstant)
}

func (h *BitHeap) add(weight int, expr, comment string, stage int, offset float64, origin Origin) (BitID, error) {
	if h.finalized {
		return NoBit, &ContractError{
			Code:      ErrCodeHeapFinalized,
			Message:   "bit added after compression",
			Weight:    weight,
			MaxWeight: h.cs.maxWeight(),
		}
	}
	if !h.cs.inRange(weight) {
		return NoBit, newWeightError(weight, h.cs.maxWeight())
	}

	if stage < 0 || offset < 0 || math.IsNaN(offset) || math.IsInf(offset, 0) {
		return NoBit, &ContractError{
			Code:      ErrCodeInvalidTiming,
			Message:   fmt.Sprintf("arrival stage %d offset %v", stage, offset),
			Weight:    weight,
			MaxWeight: h.cs.maxWeight(),
		}
	}

	// declare before inserting so a rejected name leaves the heap unchanged
	name, err := h.op.Declare(h.cs.nextName(weight), 0)
	if err != nil {
		return NoBit, fmt.Errorf("bitheap: declare %s: %w", h.cs.nextName(weight), err)
	}
	id := h.cs.insert(WeightedBit{
		Name:         name,
		Weight:       weight,
		Stage:        stage,
		TimingOffset: offset,
		Origin:       origin,
	})

	if comment != "" {
		h.op.Emit(fmt.Sprintf("%s <= %s; -- %s\n", name, expr, comment))
	} else {
		h.op.Emit(fmt.Sprintf("%s <= %s;\n", name, expr))
	}

	h.sources = append(h.sources, id)
	h.metrics.BitAdded()
	return id, nil
}

// Height returns the number of unconsumed bits of column w.
func (h *BitHeap) Height(w int) int {
	return h.cs.height(w)
}

// Column returns a copy of column w in arrival order, consumed bits
// included. It returns nil outside the heap.
func (h *BitHeap) Column(w int) []WeightedBit {
	return h.cs.column(w)
}

// Bit returns the bit with the given ID.
func (h *BitHeap) Bit(id BitID) (WeightedBit, bool) {
	if id < 0 || int(id) >= len(h.cs.arena) {
		return WeightedBit{}, false
	}
	return h.cs.arena[id], true
}

// Sources returns the IDs of the bits added before compression, in the
// order they were added.
func (h *BitHeap) Sources() []BitID {
	out := make([]BitID, len(h.sources))
	copy(out, h.sources)
	return out
}

// Result returns the compression result, if Compress has succeeded.
func (h *BitHeap) Result() (*Result, bool) {
	return h.result, h.result != nil
}

// Compress reduces the heap to one word of MaxWeight bits and emits the
// reduction through the operator. It may be called once; afterwards the
// heap is read-only, even if compression failed.
func (h *BitHeap) Compress() (*Result, error) {
	if h.finalized {
		return nil, &ContractError{
			Code:      ErrCodeAlreadyCompressed,
			Message:   "heap already compressed",
			Weight:    -1,
			MaxWeight: h.cs.maxWeight(),
		}
	}
	h.finalized = true

	budget := h.budget
	if budget <= 0 {
		budget = h.cs.unconsumed() + 1
	}

	t := h.op.Target()
	s := &scheduler{
		cs:      h.cs,
		catalog: h.catalog,
		budget:  NewStepBudget(budget),
		logger:  h.logger,
	}
	if t != nil {
		s.compressorDelay = t.CompressorDelay()
		s.adderDelay = t.AdderDelay
	} else {
		s.adderDelay = func(int) float64 { return 0 }
	}

	plan, err := s.run()
	if err != nil {
		return nil, err
	}
	plan.Sources = make([]SourceBit, len(h.sources))
	for i, id := range h.sources {
		b := h.cs.bit(id)
		plan.Sources[i] = SourceBit{ID: id, Weight: b.Weight, Constant: b.Origin == OriginConstant}
	}

	em := &emitter{op: h.op, cs: h.cs, prefix: h.prefix()}
	if err := em.emit(plan, h.SumName()); err != nil {
		return nil, fmt.Errorf("bitheap: emit: %w", err)
	}

	res := &Result{
		Signal: h.SumName(),
		Width:  h.cs.maxWeight(),
		Plan:   plan,
	}
	for _, st := range plan.Steps {
		if st.Kind == StepCompress {
			h.metrics.CompressorUsed(st.Compressor.Kind())
			continue
		}
		if st.Stage > res.Stage || (st.Stage == res.Stage && st.TimingOffset > res.TimingOffset) {
			res.Stage, res.TimingOffset = st.Stage, st.TimingOffset
		}
	}
	h.result = res
	h.metrics.HeapCompressed(plan.AdderWidth(), res.Stage, plan.Dropped)

	h.logger.Info("bit heap compressed",
		"name", h.name,
		"max_weight", plan.MaxWeight,
		"min_weight", plan.MinWeight,
		"compressors", plan.CompressorTotal(),
		"adder_width", plan.AdderWidth(),
		"stage", res.Stage,
	)
	return res, nil
}

// Canonical returns the contributed bits as a canonical-JSON-ready map.
func (h *BitHeap) Canonical() map[string]any {
	bits := make([]any, len(h.sources))
	for i, id := range h.sources {
		b := h.cs.bit(id)
		bits[i] = map[string]any{
			"weight":    b.Weight,
			"stage":     b.Stage,
			"offset_ps": ir.Picoseconds(b.TimingOffset),
			"origin":    string(b.Origin),
		}
	}
	return map[string]any{
		"max_weight": h.cs.maxWeight(),
		"lut_inputs": h.catalog.Limit(),
		"bits":       bits,
	}
}

// Hash returns the content identity of the contributed bits.
func (h *BitHeap) Hash() (string, error) {
	return ir.HeapHash(h.Canonical())
}

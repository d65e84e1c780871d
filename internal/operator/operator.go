// Package operator builds arithmetic operators on top of a bit heap: an
// integer multiplier and a multi-operand adder. Each operator generates a
// complete VHDL entity and carries an arbitrary-precision emulation, so the
// reduction plan can be checked against the arithmetic it implements.
package operator

import (
	"fmt"
	"log/slog"
	"math/big"
	"math/rand/v2"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/roach88/bitheap/internal/bitheap"
	"github.com/roach88/bitheap/internal/compressor"
	"github.com/roach88/bitheap/internal/metrics"
	"github.com/roach88/bitheap/internal/target"
	"github.com/roach88/bitheap/internal/vhdl"
)

// Generator is a finished operator.
type Generator interface {
	// Name is the entity name.
	Name() string

	// Entity is the generated design unit.
	Entity() *vhdl.Entity

	// Heap is the bit heap the operator reduced.
	Heap() *bitheap.BitHeap

	// Result is the outcome of the heap reduction.
	Result() *bitheap.Result

	// InputWidths gives the width of each input port, in port order.
	InputWidths() []int

	// Emulate computes the output bit pattern for the given input bit
	// patterns, each in [0, 2^width).
	Emulate(inputs []*big.Int) (*big.Int, error)

	// Assign returns the heap source bits that are 1 for the given inputs.
	Assign(inputs []*big.Int) (*roaring.Bitmap, error)
}

// Options carries the ambient configuration of a generator.
type Options struct {
	Target  *target.Target
	Catalog *compressor.Catalog
	Logger  *slog.Logger
	Metrics *metrics.Collector
}

func (o Options) target() *target.Target {
	if o.Target == nil {
		return target.Default()
	}
	return o.Target
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o Options) heapOptions() []bitheap.Option {
	opts := []bitheap.Option{
		bitheap.WithLogger(o.logger()),
		bitheap.WithMetrics(o.Metrics),
	}
	if o.Catalog != nil {
		opts = append(opts, bitheap.WithCatalog(o.Catalog))
	}
	return opts
}

// operandBit is bit Bit of input Input.
type operandBit struct {
	Input int
	Bit   int
}

// term records the meaning of one heap source bit: the AND of its operand
// bits, complemented when Negated.
type term struct {
	ID       bitheap.BitID
	Operands []operandBit
	Negated  bool
}

// base holds what every generator shares.
type base struct {
	name   string
	widths []int
	entity *vhdl.Entity
	heap   *bitheap.BitHeap
	result *bitheap.Result
	terms  []term

	// constant accumulates the constant ones of sign handling, modulo
	// 2^heap width, until they are added to the heap.
	constant *big.Int
}

func newBase(name string, widths []int, outWidth int, opts Options) (*base, error) {
	e, err := vhdl.NewEntity(name, opts.target())
	if err != nil {
		return nil, err
	}
	for i, w := range widths {
		if err := e.AddInput(inputName(len(widths), i), w); err != nil {
			return nil, err
		}
	}
	if err := e.AddOutput("R", outWidth); err != nil {
		return nil, err
	}

	h, err := bitheap.New(e, outWidth, opts.heapOptions()...)
	if err != nil {
		return nil, err
	}
	return &base{
		name:     name,
		widths:   widths,
		entity:   e,
		heap:     h,
		constant: new(big.Int),
	}, nil
}

// inputName is X, Y for two-input operators and X0..Xn-1 otherwise.
func inputName(n, i int) string {
	if n == 2 {
		return []string{"X", "Y"}[i]
	}
	return fmt.Sprintf("X%d", i)
}

func (b *base) Name() string                { return b.name }
func (b *base) Entity() *vhdl.Entity        { return b.entity }
func (b *base) Heap() *bitheap.BitHeap      { return b.heap }
func (b *base) Result() *bitheap.Result     { return b.result }
func (b *base) InputWidths() []int          { return append([]int(nil), b.widths...) }
func (b *base) operand(o operandBit) string { return fmt.Sprintf("%s(%d)", inputName(len(b.widths), o.Input), o.Bit) }

// addTerm adds the AND of operands at weight. A negative term -v*2^w is
// added as (not v)*2^w - 2^w; the -2^w goes to the constant.
func (b *base) addTerm(weight int, negative bool, operands ...operandBit) error {
	names := make([]string, len(operands))
	for i, o := range operands {
		names[i] = b.operand(o)
	}
	expr := names[0]
	for _, n := range names[1:] {
		expr += " and " + n
	}
	if negative {
		if len(names) > 1 {
			expr = "(" + expr + ")"
		}
		expr = "not " + expr
		b.constant.Sub(b.constant, new(big.Int).Lsh(big.NewInt(1), uint(weight)))
	}

	id, err := b.heap.AddBit(weight, expr, "")
	if err != nil {
		return err
	}
	b.terms = append(b.terms, term{ID: id, Operands: operands, Negated: negative})
	return nil
}

// finish adds the accumulated constant, compresses the heap and drives R.
func (b *base) finish() error {
	w := b.heap.MaxWeight()
	c := new(big.Int).Mod(b.constant, new(big.Int).Lsh(big.NewInt(1), uint(w)))
	for i := 0; i < w; i++ {
		if c.Bit(i) == 1 {
			if _, err := b.heap.AddConstantOneBit(i); err != nil {
				return err
			}
		}
	}

	res, err := b.heap.Compress()
	if err != nil {
		return err
	}
	b.result = res
	b.entity.Emit(fmt.Sprintf("R <= %s;\n", res.Signal))
	return nil
}

func (b *base) checkInputs(inputs []*big.Int) error {
	if len(inputs) != len(b.widths) {
		return fmt.Errorf("%s: want %d inputs, got %d", b.name, len(b.widths), len(inputs))
	}
	for i, v := range inputs {
		if v.Sign() < 0 || v.BitLen() > b.widths[i] {
			return fmt.Errorf("%s: input %d out of range for %d bits", b.name, i, b.widths[i])
		}
	}
	return nil
}

func (b *base) Assign(inputs []*big.Int) (*roaring.Bitmap, error) {
	if err := b.checkInputs(inputs); err != nil {
		return nil, err
	}
	ones := roaring.New()
	for _, t := range b.terms {
		v := true
		for _, o := range t.Operands {
			v = v && inputs[o.Input].Bit(o.Bit) == 1
		}
		if v != t.Negated {
			ones.Add(uint32(t.ID))
		}
	}
	return ones, nil
}

// signedValue interprets pattern as a two's complement number of width bits.
func signedValue(pattern *big.Int, width int) *big.Int {
	v := new(big.Int).Set(pattern)
	if width > 0 && pattern.Bit(width-1) == 1 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(width)))
	}
	return v
}

// pattern reduces v modulo 2^width.
func pattern(v *big.Int, width int) *big.Int {
	return new(big.Int).Mod(v, new(big.Int).Lsh(big.NewInt(1), uint(width)))
}

// RandomInputs draws one bit pattern per input of g.
func RandomInputs(g Generator, r *rand.Rand) []*big.Int {
	widths := g.InputWidths()
	out := make([]*big.Int, len(widths))
	for i, w := range widths {
		v := new(big.Int)
		for b := 0; b < w; b += 64 {
			v.Lsh(v, 64)
			v.Or(v, new(big.Int).SetUint64(r.Uint64()))
		}
		out[i] = pattern(v, w)
	}
	return out
}

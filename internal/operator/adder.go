package operator

import (
	"fmt"
	"math/big"
	"math/bits"
)

// MultiAdder sums n operands of w bits. The output is wide enough that the
// sum never overflows: w + ceil(log2 n) bits.
type MultiAdder struct {
	*base
	n, w   int
	signed bool
}

// NewMultiAdder generates the adder.
func NewMultiAdder(n, w int, signed bool, opts Options) (*MultiAdder, error) {
	if n < 2 || w < 1 {
		return nil, fmt.Errorf("adder: need at least 2 operands of at least 1 bit, got %dx%d", n, w)
	}
	sign := "unsigned"
	if signed {
		sign = "signed"
	}
	name := fmt.Sprintf("MultiAdder_%d_%d_%s", n, w, sign)
	widths := make([]int, n)
	for i := range widths {
		widths[i] = w
	}

	b, err := newBase(name, widths, w+bits.Len(uint(n-1)), opts)
	if err != nil {
		return nil, err
	}
	a := &MultiAdder{base: b, n: n, w: w, signed: signed}

	opts.logger().Debug("generating adder", "name", name, "operands", n, "width", w, "signed", signed)
	for k := 0; k < n; k++ {
		for i := 0; i < w; i++ {
			if err := a.addTerm(i, signed && i == w-1, operandBit{k, i}); err != nil {
				return nil, err
			}
		}
	}
	if err := a.finish(); err != nil {
		return nil, fmt.Errorf("adder %s: %w", name, err)
	}
	return a, nil
}

// Emulate returns the sum bit pattern.
func (a *MultiAdder) Emulate(inputs []*big.Int) (*big.Int, error) {
	if err := a.checkInputs(inputs); err != nil {
		return nil, err
	}
	sum := new(big.Int)
	for _, v := range inputs {
		if a.signed {
			v = signedValue(v, a.w)
		}
		sum.Add(sum, v)
	}
	return pattern(sum, a.heap.MaxWeight()), nil
}

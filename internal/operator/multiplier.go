package operator

import (
	"fmt"
	"math/big"
)

// IntMultiplier is a wX by wY integer multiplier producing the full
// wX+wY bit product. Every partial product bit x(i) and y(j) is a heap bit
// of weight i+j.
//
// For signed operands the products involving exactly one sign bit are
// negative. Each is added complemented, and the matching -2^(i+j) is folded
// into a constant that enters the heap as constant one bits.
type IntMultiplier struct {
	*base
	wX, wY int
	signed bool
}

// NewIntMultiplier generates the multiplier.
func NewIntMultiplier(wX, wY int, signed bool, opts Options) (*IntMultiplier, error) {
	if wX < 1 || wY < 1 {
		return nil, fmt.Errorf("multiplier: operand widths must be positive, got %dx%d", wX, wY)
	}
	sign := "unsigned"
	if signed {
		sign = "signed"
	}
	name := fmt.Sprintf("IntMultiplier_%d_%d_%s", wX, wY, sign)

	b, err := newBase(name, []int{wX, wY}, wX+wY, opts)
	if err != nil {
		return nil, err
	}
	m := &IntMultiplier{base: b, wX: wX, wY: wY, signed: signed}

	opts.logger().Debug("generating multiplier", "name", name, "wx", wX, "wy", wY, "signed", signed)
	for j := 0; j < wY; j++ {
		for i := 0; i < wX; i++ {
			negative := signed && (i == wX-1) != (j == wY-1)
			if err := m.addTerm(i+j, negative, operandBit{0, i}, operandBit{1, j}); err != nil {
				return nil, err
			}
		}
	}
	if err := m.finish(); err != nil {
		return nil, fmt.Errorf("multiplier %s: %w", name, err)
	}
	return m, nil
}

// Emulate returns the product bit pattern, modulo 2^(wX+wY).
func (m *IntMultiplier) Emulate(inputs []*big.Int) (*big.Int, error) {
	if err := m.checkInputs(inputs); err != nil {
		return nil, err
	}
	x, y := inputs[0], inputs[1]
	if m.signed {
		x = signedValue(x, m.wX)
		y = signedValue(y, m.wY)
	}
	return pattern(new(big.Int).Mul(x, y), m.wX+m.wY), nil
}

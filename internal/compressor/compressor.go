// Package compressor describes the small fixed-topology reduction primitives
// used by the bit heap and generates the catalog of primitives a target can
// realize in a single logic cell.
//
// A compressor (c0, c1) consumes c0 bits of weight w and c1 bits of weight
// w+1. It is a generalized parallel counter: its output is the binary count
// c0' + 2*c1' of the input bits that are set, written on Outputs() bits of
// weights w, w+1, ... .
package compressor

import (
	"fmt"
	"math/bits"
)

// Compressor is a two-column compressor descriptor.
type Compressor struct {
	Inputs0 int `json:"inputs0" yaml:"inputs0"` // bits consumed from the primary column
	Inputs1 int `json:"inputs1" yaml:"inputs1"` // bits consumed from the next-higher column
}

// Name returns the design-unit name used when the compressor is emitted.
func (c Compressor) Name() string {
	return "Compressor_" + c.Kind()
}

// Kind returns the short "<c0>_<c1>" tag used in reports and metrics.
func (c Compressor) Kind() string {
	return fmt.Sprintf("%d_%d", c.Inputs0, c.Inputs1)
}

// MaxValue is the largest count the compressor can produce.
func (c Compressor) MaxValue() int {
	return c.Inputs0 + 2*c.Inputs1
}

// Outputs is the number of output bits, starting at the primary column.
func (c Compressor) Outputs() int {
	return bits.Len(uint(c.MaxValue()))
}

// Inputs is the total number of consumed bits. It is also the number of
// logic-cell inputs the compressor needs for its widest output bit.
func (c Compressor) Inputs() int {
	return c.Inputs0 + c.Inputs1
}

// Fits reports whether the compressor satisfies inputs0 + 2*inputs1 <= limit.
func (c Compressor) Fits(limit int) bool {
	return c.Inputs0 >= 1 && c.Inputs1 >= 0 && c.MaxValue() <= limit
}

// Count evaluates the compressor on concrete input values.
// ones0 and ones1 are the numbers of set bits in each input column.
func (c Compressor) Count(ones0, ones1 int) int {
	return ones0 + 2*ones1
}

func (c Compressor) String() string {
	return fmt.Sprintf("(%d,%d)", c.Inputs0, c.Inputs1)
}

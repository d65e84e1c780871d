// Package target models the reconfigurable device an operator is generated
// for: the logic-cell input limit that bounds the compressor catalog and the
// delay constants used to stamp bits with their intra-stage timing offset.
//
// Targets come from built-in presets or from YAML files. Files are checked
// against an embedded CUE schema before use, so a typo or an out-of-range
// constant fails loudly instead of silently producing a wrong catalog.
package target

import (
	"github.com/roach88/bitheap/internal/compressor"
)

// Target is a device model. Delays are in nanoseconds, frequency in MHz.
type Target struct {
	Name           string  `json:"name" yaml:"name"`
	LUTInputs      int     `json:"lut_inputs" yaml:"lut_inputs"`
	LUTDelay       float64 `json:"lut_delay" yaml:"lut_delay"`
	FastCarryDelay float64 `json:"fast_carry_delay" yaml:"fast_carry_delay"`
	LocalWireDelay float64 `json:"local_wire_delay" yaml:"local_wire_delay"`
	FFDelay        float64 `json:"ff_delay" yaml:"ff_delay"`
	Frequency      float64 `json:"frequency" yaml:"frequency"`
}

// Period returns the target clock period in nanoseconds.
func (t *Target) Period() float64 {
	if t.Frequency <= 0 {
		return 0
	}
	return 1000.0 / t.Frequency
}

// CompressorDelay is the delay from the inputs of a single-LUT compressor
// to its outputs.
func (t *Target) CompressorDelay() float64 {
	return t.LUTDelay + t.LocalWireDelay
}

// AdderDelay is the delay of a carry-propagate adder of the given width.
func (t *Target) AdderDelay(width int) float64 {
	if width <= 0 {
		return 0
	}
	return t.LUTDelay + float64(width)*t.FastCarryDelay
}

// Catalog builds the compressor catalog for this target's LUT input count.
func (t *Target) Catalog() (*compressor.Catalog, error) {
	return compressor.Build(t.LUTInputs)
}

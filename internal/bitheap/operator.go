package bitheap

import (
	"github.com/roach88/bitheap/internal/compressor"
	"github.com/roach88/bitheap/internal/target"
)

// Operator is the hardware operator that owns a heap. The heap declares its
// signals through it and appends structural fragments to its body, in call
// order.
type Operator interface {
	// Declare registers a signal of the given width and returns the
	// identifier to use for it. Width 0 declares a single bit, width n >= 1
	// a vector of n bits indexed n-1 downto 0.
	Declare(name string, width int) (string, error)

	// Emit appends one structural fragment (one or more statements).
	Emit(fragment string)

	// UseCompressor records that the design instantiates c, so that its
	// entity is generated once.
	UseCompressor(c compressor.Compressor)

	// CurrentStage and CurrentTimingOffset stamp bits added without
	// explicit timing.
	CurrentStage() int
	CurrentTimingOffset() float64

	// Target is the device model the operator is built for.
	Target() *target.Target
}

// Package testutil provides deterministic helpers for bit heap tests: an
// operator that records everything a heap emits, and seeded random heaps.
package testutil

import (
	"fmt"
	"strings"

	"github.com/roach88/bitheap/internal/compressor"
	"github.com/roach88/bitheap/internal/target"
)

// Signal is one declaration recorded by RecordingOperator.
type Signal struct {
	Name  string
	Width int
}

// RecordingOperator implements bitheap.Operator by recording declarations
// and fragments in call order.
type RecordingOperator struct {
	Signals     []Signal
	Fragments   []string
	Compressors []compressor.Compressor

	target   *target.Target
	stage    int
	offset   float64
	declared map[string]bool
}

// NewRecordingOperator creates an operator for t, or for the default target
// when t is nil.
func NewRecordingOperator(t *target.Target) *RecordingOperator {
	if t == nil {
		t = target.Default()
	}
	return &RecordingOperator{
		target:   t,
		declared: make(map[string]bool),
	}
}

// Declare records a signal. Declaring the same name twice is an error.
func (o *RecordingOperator) Declare(name string, width int) (string, error) {
	if o.declared[name] {
		return "", fmt.Errorf("signal %s declared twice", name)
	}
	if width < 0 {
		return "", fmt.Errorf("signal %s: negative width %d", name, width)
	}
	o.declared[name] = true
	o.Signals = append(o.Signals, Signal{Name: name, Width: width})
	return name, nil
}

func (o *RecordingOperator) Emit(fragment string) {
	o.Fragments = append(o.Fragments, fragment)
}

func (o *RecordingOperator) UseCompressor(c compressor.Compressor) {
	for _, u := range o.Compressors {
		if u == c {
			return
		}
	}
	o.Compressors = append(o.Compressors, c)
}

func (o *RecordingOperator) CurrentStage() int {
	return o.stage
}

func (o *RecordingOperator) CurrentTimingOffset() float64 {
	return o.offset
}

func (o *RecordingOperator) Target() *target.Target {
	return o.target
}

// SetCycle moves the operator to the given stage and timing offset.
func (o *RecordingOperator) SetCycle(stage int, offset float64) {
	o.stage = stage
	o.offset = offset
}

// Declared reports whether name was declared.
func (o *RecordingOperator) Declared(name string) bool {
	return o.declared[name]
}

// Text returns all fragments concatenated.
func (o *RecordingOperator) Text() string {
	return strings.Join(o.Fragments, "")
}

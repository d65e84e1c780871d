// Package vhdl renders structural VHDL design units. An Entity collects the
// ports, signal declarations and concurrent statements of one operator and
// is the emission target of its bit heaps.
package vhdl

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/roach88/bitheap/internal/compressor"
	"github.com/roach88/bitheap/internal/target"
)

const indent = "   "

var identifier = regexp.MustCompile(`^[A-Za-z](_?[A-Za-z0-9])*$`)

// Direction is a port mode.
type Direction string

const (
	In  Direction = "in"
	Out Direction = "out"
)

// Port is an entity port. Width 0 is a single std_logic.
type Port struct {
	Name  string
	Dir   Direction
	Width int
}

// Signal is an architecture signal. Width 0 is a single std_logic.
type Signal struct {
	Name  string
	Width int
}

// Entity is one design unit under construction.
// It is not safe for concurrent use.
type Entity struct {
	name   string
	target *target.Target

	ports       []Port
	signals     []Signal
	body        []string
	compressors []compressor.Compressor
	names       map[string]bool // lower-cased; VHDL identifiers are case-insensitive

	stage  int
	offset float64
}

// NewEntity creates an empty entity for the given target.
func NewEntity(name string, t *target.Target) (*Entity, error) {
	if !identifier.MatchString(name) {
		return nil, fmt.Errorf("vhdl: invalid entity name %q", name)
	}
	if t == nil {
		t = target.Default()
	}
	return &Entity{
		name:   name,
		target: t,
		names:  make(map[string]bool),
	}, nil
}

// Name returns the entity name.
func (e *Entity) Name() string {
	return e.name
}

func (e *Entity) claim(name string) error {
	if !identifier.MatchString(name) {
		return fmt.Errorf("vhdl: invalid identifier %q", name)
	}
	key := strings.ToLower(name)
	if e.names[key] {
		return fmt.Errorf("vhdl: %s already declared in %s", name, e.name)
	}
	e.names[key] = true
	return nil
}

// AddInput declares an input port.
func (e *Entity) AddInput(name string, width int) error {
	return e.addPort(Port{Name: name, Dir: In, Width: width})
}

// AddOutput declares an output port.
func (e *Entity) AddOutput(name string, width int) error {
	return e.addPort(Port{Name: name, Dir: Out, Width: width})
}

func (e *Entity) addPort(p Port) error {
	if p.Width < 0 {
		return fmt.Errorf("vhdl: port %s: negative width %d", p.Name, p.Width)
	}
	if err := e.claim(p.Name); err != nil {
		return err
	}
	e.ports = append(e.ports, p)
	return nil
}

// Ports returns the declared ports in order.
func (e *Entity) Ports() []Port {
	out := make([]Port, len(e.ports))
	copy(out, e.ports)
	return out
}

// Declare adds an architecture signal and returns its identifier.
func (e *Entity) Declare(name string, width int) (string, error) {
	if width < 0 {
		return "", fmt.Errorf("vhdl: signal %s: negative width %d", name, width)
	}
	if err := e.claim(name); err != nil {
		return "", err
	}
	e.signals = append(e.signals, Signal{Name: name, Width: width})
	return name, nil
}

// Emit appends concurrent statements to the architecture body.
func (e *Entity) Emit(fragment string) {
	e.body = append(e.body, fragment)
}

// UseCompressor records a compressor kind to render alongside the entity.
func (e *Entity) UseCompressor(c compressor.Compressor) {
	for _, u := range e.compressors {
		if u == c {
			return
		}
	}
	e.compressors = append(e.compressors, c)
}

// Compressors returns the compressor kinds used, in first-use order.
func (e *Entity) Compressors() []compressor.Compressor {
	out := make([]compressor.Compressor, len(e.compressors))
	copy(out, e.compressors)
	return out
}

// CurrentStage implements bitheap.Operator.
func (e *Entity) CurrentStage() int {
	return e.stage
}

// CurrentTimingOffset implements bitheap.Operator.
func (e *Entity) CurrentTimingOffset() float64 {
	return e.offset
}

// SetCycle sets the stage and timing offset stamped on bits added next.
func (e *Entity) SetCycle(stage int, offset float64) {
	e.stage = stage
	e.offset = offset
}

// Target returns the device the entity is generated for.
func (e *Entity) Target() *target.Target {
	return e.target
}

// Render returns the compressor entities used, followed by this entity.
func (e *Entity) Render() string {
	var b strings.Builder
	for _, c := range e.compressors {
		b.WriteString(CompressorEntity(c))
		b.WriteString("\n")
	}
	e.renderUnit(&b)
	return b.String()
}

// WriteTo writes Render's output to w.
func (e *Entity) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, e.Render())
	return int64(n), err
}

func (e *Entity) renderUnit(b *strings.Builder) {
	writeHeader(b)
	fmt.Fprintf(b, "entity %s is\n", e.name)
	writePorts(b, e.ports)
	b.WriteString("end entity;\n\n")

	fmt.Fprintf(b, "architecture arch of %s is\n", e.name)
	for _, s := range e.signals {
		fmt.Fprintf(b, "%ssignal %s : %s;\n", indent, s.Name, typeOf(s.Width))
	}
	b.WriteString("begin\n")
	for _, frag := range e.body {
		for _, line := range strings.SplitAfter(frag, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			b.WriteString(indent)
			b.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				b.WriteString("\n")
			}
		}
	}
	b.WriteString("end architecture;\n")
}

func writeHeader(b *strings.Builder) {
	b.WriteString("library ieee;\n")
	b.WriteString("use ieee.std_logic_1164.all;\n")
	b.WriteString("use ieee.numeric_std.all;\n\n")
}

func writePorts(b *strings.Builder, ports []Port) {
	if len(ports) == 0 {
		return
	}
	fmt.Fprintf(b, "%sport (\n", indent)
	for i, p := range ports {
		sep := ";"
		if i == len(ports)-1 {
			sep = ""
		}
		fmt.Fprintf(b, "%s%s%s : %s %s%s\n", indent, indent, p.Name, p.Dir, typeOf(p.Width), sep)
	}
	fmt.Fprintf(b, "%s);\n", indent)
}

func typeOf(width int) string {
	if width == 0 {
		return "std_logic"
	}
	return fmt.Sprintf("std_logic_vector(%d downto 0)", width-1)
}

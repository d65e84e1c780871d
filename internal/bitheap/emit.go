package bitheap

import (
	"fmt"
	"strings"
)

const zeroBit = "'0'"

// emitter writes a finished plan to the operator.
type emitter struct {
	op     Operator
	cs     *columnStore
	prefix string
}

func (e *emitter) emit(plan *Plan, sumName string) error {
	var chunks []string
	for _, s := range plan.Steps {
		var err error
		switch s.Kind {
		case StepPassThrough:
			var name string
			name, err = e.passThrough(s)
			chunks = append(chunks, name)
		case StepCompress:
			err = e.compress(s)
		case StepAdd:
			var name string
			name, err = e.add(s)
			chunks = append(chunks, name)
		}
		if err != nil {
			return err
		}
	}

	sum, err := e.op.Declare(sumName, plan.MaxWeight)
	if err != nil {
		return err
	}
	hiFirst := make([]string, len(chunks))
	for i, c := range chunks {
		hiFirst[len(chunks)-1-i] = c
	}
	e.op.Emit(fmt.Sprintf("%s <= %s;\n", sum, strings.Join(hiFirst, " & ")))
	return nil
}

func (e *emitter) passThrough(s Step) (string, error) {
	name, err := e.op.Declare(e.chunkName(s.Chunk), s.Width)
	if err != nil {
		return "", err
	}
	e.op.Emit(fmt.Sprintf("%s <= %s;\n", name, vector(e.names(s.Bits))))
	return name, nil
}

func (e *emitter) compress(s Step) error {
	c := s.Compressor
	e.op.UseCompressor(c)

	base := fmt.Sprintf("%scmp%d", e.prefix, s.Index)
	x0, err := e.op.Declare(base+"_X0", c.Inputs0)
	if err != nil {
		return err
	}
	e.op.Emit(fmt.Sprintf("%s <= %s;\n", x0, vector(e.names(s.Inputs0))))

	ports := []string{"X0 => " + x0}
	if c.Inputs1 > 0 {
		x1, err := e.op.Declare(base+"_X1", c.Inputs1)
		if err != nil {
			return err
		}
		e.op.Emit(fmt.Sprintf("%s <= %s;\n", x1, vector(e.names(s.Inputs1))))
		ports = append(ports, "X1 => "+x1)
	}

	r, err := e.op.Declare(base+"_R", c.Outputs())
	if err != nil {
		return err
	}
	ports = append(ports, "R => "+r)

	var b strings.Builder
	fmt.Fprintf(&b, "%s: entity work.%s\n", base, c.Name())
	fmt.Fprintf(&b, "   port map ( %s );\n", strings.Join(ports, ",\n              "))
	for i, id := range s.Outputs {
		if id == NoBit {
			continue
		}
		if err := e.declareBit(id); err != nil {
			return err
		}
		fmt.Fprintf(&b, "%s <= %s(%d);\n", e.cs.bit(id).Name, r, i)
	}
	e.op.Emit(b.String())
	return nil
}

func (e *emitter) add(s Step) (string, error) {
	n := s.Width
	in0, err := e.op.Declare(fmt.Sprintf("%saddInput0_%d", e.prefix, s.Index), n+1)
	if err != nil {
		return "", err
	}
	in1, err := e.op.Declare(fmt.Sprintf("%saddInput1_%d", e.prefix, s.Index), n+1)
	if err != nil {
		return "", err
	}
	res, err := e.op.Declare(fmt.Sprintf("%saddRes_%d", e.prefix, s.Index), n+1)
	if err != nil {
		return "", err
	}
	chunk, err := e.op.Declare(e.chunkName(s.Chunk), n)
	if err != nil {
		return "", err
	}

	row0 := append(e.names(s.Inputs0), zeroBit)
	row1 := append(e.names(s.Inputs1), zeroBit)

	var b strings.Builder
	fmt.Fprintf(&b, "%s <= %s;\n", in0, vector(row0))
	fmt.Fprintf(&b, "%s <= %s;\n", in1, vector(row1))
	fmt.Fprintf(&b, "%s <= std_logic_vector(unsigned(%s) + unsigned(%s));\n", res, in0, in1)
	fmt.Fprintf(&b, "%s <= %s(%d downto 0);\n", chunk, res, n-1)
	e.op.Emit(b.String())
	return chunk, nil
}

// declareBit declares a compressor output bit and adopts the identifier the
// operator returns.
func (e *emitter) declareBit(id BitID) error {
	b := e.cs.bit(id)
	name, err := e.op.Declare(b.Name, 0)
	if err != nil {
		return err
	}
	b.Name = name
	return nil
}

func (e *emitter) chunkName(i int) string {
	return fmt.Sprintf("%stempR%d", e.prefix, i)
}

// names maps bits to signal names, low weight first, with '0' for NoBit.
func (e *emitter) names(ids []BitID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		if id == NoBit {
			out[i] = zeroBit
			continue
		}
		out[i] = e.cs.bit(id).Name
	}
	return out
}

// vector renders bits (index 0 first) as a vector expression, most
// significant bit leftmost. A one-bit vector needs an aggregate.
func vector(lowFirst []string) string {
	if len(lowFirst) == 1 {
		return "(0 => " + lowFirst[0] + ")"
	}
	hiFirst := make([]string, len(lowFirst))
	for i, s := range lowFirst {
		hiFirst[len(lowFirst)-1-i] = s
	}
	return strings.Join(hiFirst, " & ")
}

package bitheap

import "fmt"

// BitID identifies a bit in the heap's arena. IDs are dense, start at 0 and
// follow insertion order, including bits produced by compression.
type BitID int

// NoBit marks an absent bit: a zero operand in the final adder or a
// compressor output that fell off the top of the heap.
const NoBit BitID = -1

// Origin tells where a bit came from.
type Origin string

const (
	OriginInput      Origin = "input"
	OriginConstant   Origin = "constant"
	OriginCompressor Origin = "compressor"
)

// WeightedBit is one bit of the heap.
type WeightedBit struct {
	ID           BitID
	Weight       int
	Stage        int
	TimingOffset float64
	Name         string
	Origin       Origin
	Consumed     bool
}

// Before reports whether b arrives strictly earlier than o: at an earlier
// stage, or at the same stage with a smaller timing offset.
func (b *WeightedBit) Before(o *WeightedBit) bool {
	if b.Stage != o.Stage {
		return b.Stage < o.Stage
	}
	return b.TimingOffset < o.TimingOffset
}

func (b *WeightedBit) String() string {
	return fmt.Sprintf("%s@w%d(s%d+%.3g)", b.Name, b.Weight, b.Stage, b.TimingOffset)
}

// bitName is the heap-unique signal name of the uid-th bit of column w.
func bitName(prefix string, weight, uid int) string {
	return fmt.Sprintf("%sheap_w%d_%d", prefix, weight, uid)
}

package bitheap

import (
	"sort"

	"github.com/roach88/bitheap/internal/compressor"
	"github.com/roach88/bitheap/internal/ir"
)

// StepKind identifies what a plan step does.
type StepKind string

const (
	// StepPassThrough copies the already-reduced low columns into a chunk.
	StepPassThrough StepKind = "pass_through"

	// StepCompress applies one compressor.
	StepCompress StepKind = "compress"

	// StepAdd sums the two remaining rows with a carry-propagate adder.
	StepAdd StepKind = "add"
)

// Step is one action of a reduction, in execution order.
type Step struct {
	Kind StepKind

	// Index numbers steps of the same kind from 0 (compressor instance k,
	// adder k). Chunk numbers are carried separately in Chunk.
	Index int

	// Weight is the primary column of a compressor, or the lowest column
	// covered by a chunk.
	Weight int

	// Compressor is set for StepCompress.
	Compressor compressor.Compressor

	// Inputs0 and Inputs1 are the consumed bits of a compressor, earliest
	// first. For StepAdd they are the two adder rows, one entry per column
	// from Weight upward, NoBit where the row is zero.
	Inputs0 []BitID
	Inputs1 []BitID

	// Outputs are the bits produced by a compressor, output bit i at
	// Weight+i. NoBit marks an output dropped at the top of the heap.
	Outputs []BitID

	// Bits are the columns of a pass-through chunk from Weight upward,
	// NoBit where the column was empty.
	Bits []BitID

	// Width is the chunk width (StepPassThrough, StepAdd).
	Width int

	// Chunk is the result chunk index written by StepPassThrough and StepAdd.
	Chunk int

	Stage        int
	TimingOffset float64
}

// SourceBit is a bit contributed before compression.
type SourceBit struct {
	ID       BitID
	Weight   int
	Constant bool
}

// Plan is the complete record of one reduction. It refers to bits by arena
// ID; ArenaSize bounds every ID it contains.
type Plan struct {
	MaxWeight int
	MinWeight int
	ArenaSize int
	Sources   []SourceBit
	Steps     []Step

	// Dropped counts compressor outputs discarded at weight >= MaxWeight.
	Dropped int
}

// CompressorCounts is the histogram of compressor kinds used, widest first.
func (p *Plan) CompressorCounts() []ir.CompressorCount {
	counts := make(map[compressor.Compressor]int)
	for _, s := range p.Steps {
		if s.Kind == StepCompress {
			counts[s.Compressor]++
		}
	}

	kinds := make([]compressor.Compressor, 0, len(counts))
	for c := range counts {
		kinds = append(kinds, c)
	}
	sort.Slice(kinds, func(i, j int) bool {
		if kinds[i].Inputs0 != kinds[j].Inputs0 {
			return kinds[i].Inputs0 > kinds[j].Inputs0
		}
		return kinds[i].Inputs1 > kinds[j].Inputs1
	})

	out := make([]ir.CompressorCount, len(kinds))
	for i, c := range kinds {
		out[i] = ir.CompressorCount{Kind: c.Kind(), Count: counts[c]}
	}
	return out
}

// CompressorTotal is the number of compressor instances.
func (p *Plan) CompressorTotal() int {
	n := 0
	for _, s := range p.Steps {
		if s.Kind == StepCompress {
			n++
		}
	}
	return n
}

// AdderWidth is the width of the final adder, 0 if the heap needed none.
func (p *Plan) AdderWidth() int {
	for _, s := range p.Steps {
		if s.Kind == StepAdd {
			return s.Width
		}
	}
	return 0
}

// Compressors lists the distinct compressor kinds used, in first-use order.
func (p *Plan) Compressors() []compressor.Compressor {
	seen := make(map[compressor.Compressor]bool)
	var out []compressor.Compressor
	for _, s := range p.Steps {
		if s.Kind == StepCompress && !seen[s.Compressor] {
			seen[s.Compressor] = true
			out = append(out, s.Compressor)
		}
	}
	return out
}

// Canonical returns the plan as a canonical-JSON-ready map.
// Delays are converted to integer picoseconds.
func (p *Plan) Canonical() map[string]any {
	sources := make([]any, len(p.Sources))
	for i, s := range p.Sources {
		sources[i] = map[string]any{
			"id":       int(s.ID),
			"weight":   s.Weight,
			"constant": s.Constant,
		}
	}

	steps := make([]any, len(p.Steps))
	for i, s := range p.Steps {
		m := map[string]any{
			"kind":      string(s.Kind),
			"index":     s.Index,
			"weight":    s.Weight,
			"stage":     s.Stage,
			"offset_ps": ir.Picoseconds(s.TimingOffset),
		}
		switch s.Kind {
		case StepCompress:
			m["compressor"] = s.Compressor.Kind()
			m["inputs0"] = idsToInts(s.Inputs0)
			m["inputs1"] = idsToInts(s.Inputs1)
			m["outputs"] = idsToInts(s.Outputs)
		case StepAdd:
			m["rows0"] = idsToInts(s.Inputs0)
			m["rows1"] = idsToInts(s.Inputs1)
			m["width"] = s.Width
			m["chunk"] = s.Chunk
		case StepPassThrough:
			m["bits"] = idsToInts(s.Bits)
			m["width"] = s.Width
			m["chunk"] = s.Chunk
		}
		steps[i] = m
	}

	return map[string]any{
		"max_weight": p.MaxWeight,
		"min_weight": p.MinWeight,
		"arena_size": p.ArenaSize,
		"dropped":    p.Dropped,
		"sources":    sources,
		"steps":      steps,
	}
}

// Hash returns the content identity of the plan.
func (p *Plan) Hash() (string, error) {
	return ir.PlanHash(p.Canonical())
}

func idsToInts(ids []BitID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

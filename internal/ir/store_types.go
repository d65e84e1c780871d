package ir

// Run is one recorded generation: an operator built on a target, its heap
// reduced and its VHDL emitted. Store-layer type, not part of the canonical IR.
type Run struct {
	ID            string            `json:"id"`  // UUIDv7
	Seq           int64             `json:"seq"` // logical clock, assigned by the store
	Operator      string            `json:"operator"`
	Target        string            `json:"target"`
	LUTInputs     int               `json:"lut_inputs"`
	MaxWeight     int               `json:"max_weight"`
	MinWeight     int               `json:"min_weight"`
	SourceBits    int               `json:"source_bits"`
	AdderWidth    int               `json:"adder_width"`
	Stages        int               `json:"stages"`
	HeapHash      string            `json:"heap_hash"`
	PlanHash      string            `json:"plan_hash"`
	Compressors   []CompressorCount `json:"compressors"`
	VHDL          string            `json:"vhdl,omitempty"`
	EngineVersion string            `json:"engine_version"`
	IRVersion     string            `json:"ir_version"`
}

// CompressorCount is the number of instances of one compressor kind.
type CompressorCount struct {
	Kind  string `json:"kind"` // "<inputs0>_<inputs1>"
	Count int    `json:"count"`
}

// TotalCompressors sums the compressor histogram.
func (r *Run) TotalCompressors() int {
	n := 0
	for _, c := range r.Compressors {
		n += c.Count
	}
	return n
}

// Package harness runs bit heap scenarios described in YAML.
//
// # Scenario Format
//
//	name: three_plus_two
//	description: "3 ones at weight 0 and 2 at weight 1 sum to 7"
//	target: virtex5            # preset name, default virtex5
//	lut_inputs: 6              # optional catalog limit override
//	max_weight: 4
//	bits:
//	  - { weight: 0, value: 1, count: 3 }
//	  - { weight: 1, value: 1, count: 2, stage: 1, timing_offset: 0.2 }
//	constant_ones: [0]
//	expect:
//	  value: 7
//	  compressors: 1
//	  min_weight: 0
//	  adder_width: 4
//
// A scenario may instead expect the reduction to fail:
//
//	expect:
//	  error: NO_PROGRESS
//
// Every scenario builds a self-contained VHDL entity named after it, whose
// heap bits are the constants '1' and '0' (or an explicit expr). The word
// computed by the reduction plan is checked against the expected value and
// against the arithmetic sum of the bits. Scenarios are independent and
// RunAll executes them concurrently, sharing one catalog per LUT limit.
package harness

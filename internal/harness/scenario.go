package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/bitheap/internal/bitheap"
)

// Scenario describes one bit heap and its expected reduction.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the generated
	// entity and the golden file, so it must be a VHDL identifier.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Target is a preset name. Empty selects the default target.
	Target string `yaml:"target,omitempty"`

	// LUTInputs overrides the target's catalog limit when positive.
	LUTInputs int `yaml:"lut_inputs,omitempty"`

	MaxWeight int `yaml:"max_weight"`

	Bits []BitGroup `yaml:"bits"`

	// ConstantOnes lists weights at which a constant one is added.
	ConstantOnes []int `yaml:"constant_ones,omitempty"`

	Expect Expect `yaml:"expect"`
}

// BitGroup adds Count identical bits (default 1).
type BitGroup struct {
	Weight       int     `yaml:"weight"`
	Value        int     `yaml:"value"`
	Count        int     `yaml:"count,omitempty"`
	Stage        int     `yaml:"stage,omitempty"`
	TimingOffset float64 `yaml:"timing_offset,omitempty"`

	// Expr replaces the constant expression of the bit in the VHDL.
	Expr string `yaml:"expr,omitempty"`
}

// Expect is the expected outcome. Unset fields are not checked.
type Expect struct {
	Value       *uint64 `yaml:"value,omitempty"`
	Compressors *int    `yaml:"compressors,omitempty"`
	MinWeight   *int    `yaml:"min_weight,omitempty"`
	AdderWidth  *int    `yaml:"adder_width,omitempty"`

	// Error is a contract error code the reduction must fail with.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml file of dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	seen := make(map[string]string)
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("%s: scenario %q already defined in %s", p, s.Name, prev)
		}
		seen[s.Name] = p
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

var errorCodes = map[string]bool{
	string(bitheap.ErrCodeInvalidMaxWeight):   true,
	string(bitheap.ErrCodeWeightOutOfRange):   true,
	string(bitheap.ErrCodeNoProgress):         true,
	string(bitheap.ErrCodeStepBudgetExceeded): true,
}

// validateScenario checks that required fields are present and valid.
// Weights are not checked against max_weight: an out-of-range bit is a
// legitimate scenario when it expects WEIGHT_OUT_OF_RANGE.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	for i, b := range s.Bits {
		if b.Value != 0 && b.Value != 1 {
			return fmt.Errorf("bits[%d]: value must be 0 or 1, got %d", i, b.Value)
		}
		if b.Count < 0 {
			return fmt.Errorf("bits[%d]: negative count", i)
		}
		if b.Stage < 0 || b.TimingOffset < 0 {
			return fmt.Errorf("bits[%d]: stage and timing_offset must be non-negative", i)
		}
	}

	e := s.Expect
	if e.Error != "" {
		if !errorCodes[e.Error] {
			return fmt.Errorf("expect.error: unknown error code %q", e.Error)
		}
		if e.Value != nil || e.Compressors != nil || e.MinWeight != nil || e.AdderWidth != nil {
			return fmt.Errorf("expect: error excludes value, compressors, min_weight and adder_width")
		}
		return nil
	}

	if e.Value == nil {
		return fmt.Errorf("expect.value is required")
	}
	if s.MaxWeight > 64 {
		return fmt.Errorf("max_weight %d exceeds the 64 bits of expect.value", s.MaxWeight)
	}
	return nil
}

// bitCount returns the number of bits a group adds.
func (b BitGroup) bitCount() int {
	if b.Count == 0 {
		return 1
	}
	return b.Count
}

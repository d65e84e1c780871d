package target

import (
	"fmt"
	"sort"
)

// DefaultName is the preset used when no target is specified.
const DefaultName = "virtex5"

// Delay constants are approximations taken from vendor datasheets; they only
// feed timing metadata, never the compressor choice.
var presets = map[string]Target{
	"spartan3": {
		Name:           "spartan3",
		LUTInputs:      4,
		LUTDelay:       0.61,
		FastCarryDelay: 0.051,
		LocalWireDelay: 0.5,
		FFDelay:        0.4,
		Frequency:      200,
	},
	"virtex4": {
		Name:           "virtex4",
		LUTInputs:      4,
		LUTDelay:       0.147,
		FastCarryDelay: 0.034,
		LocalWireDelay: 0.4,
		FFDelay:        0.28,
		Frequency:      400,
	},
	"virtex5": {
		Name:           "virtex5",
		LUTInputs:      6,
		LUTDelay:       0.086,
		FastCarryDelay: 0.023,
		LocalWireDelay: 0.436,
		FFDelay:        0.022,
		Frequency:      400,
	},
	"virtex6": {
		Name:           "virtex6",
		LUTInputs:      6,
		LUTDelay:       0.061,
		FastCarryDelay: 0.015,
		LocalWireDelay: 0.313,
		FFDelay:        0.018,
		Frequency:      450,
	},
	"stratix4": {
		Name:           "stratix4",
		LUTInputs:      6,
		LUTDelay:       0.162,
		FastCarryDelay: 0.011,
		LocalWireDelay: 0.3,
		FFDelay:        0.097,
		Frequency:      400,
	},
}

// Preset returns a copy of the named built-in target.
func Preset(name string) (*Target, error) {
	t, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown target %q: must be one of %v", name, PresetNames())
	}
	return &t, nil
}

// MustPreset is like Preset but panics on error.
// Use only in tests or with names known to exist.
func MustPreset(name string) *Target {
	t, err := Preset(name)
	if err != nil {
		panic(err)
	}
	return t
}

// Default returns the default target.
func Default() *Target {
	return MustPreset(DefaultName)
}

// PresetNames returns the built-in target names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package target

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bitheap/internal/compressor"
)

func TestPreset(t *testing.T) {
	v5, err := Preset("virtex5")
	require.NoError(t, err)
	assert.Equal(t, 6, v5.LUTInputs)
	assert.InDelta(t, 2.5, v5.Period(), 1e-9)

	_, err = Preset("cyclone1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown target")
}

func TestPreset_ReturnsCopy(t *testing.T) {
	a := MustPreset("virtex4")
	a.LUTInputs = 9
	b := MustPreset("virtex4")
	assert.Equal(t, 4, b.LUTInputs)
}

func TestPresetNames_Sorted(t *testing.T) {
	names := PresetNames()
	assert.Equal(t, []string{"spartan3", "stratix4", "virtex4", "virtex5", "virtex6"}, names)
	assert.Contains(t, names, DefaultName)
}

func TestPresets_PassSchema(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, v.Validate(name, MustPreset(name)))
		})
	}
}

func TestDelays(t *testing.T) {
	tg := &Target{LUTDelay: 0.1, FastCarryDelay: 0.01, LocalWireDelay: 0.2}
	assert.InDelta(t, 0.3, tg.CompressorDelay(), 1e-9)
	assert.InDelta(t, 0.18, tg.AdderDelay(8), 1e-9)
	assert.Equal(t, 0.0, tg.AdderDelay(0))
	assert.Equal(t, 0.0, (&Target{}).Period())
}

func TestCatalog_FromTarget(t *testing.T) {
	cat, err := MustPreset("virtex4").Catalog()
	require.NoError(t, err)
	assert.Equal(t, 4, cat.Widest().Inputs0)
}

func TestParse_Valid(t *testing.T) {
	data := []byte(`
name: mydevice
lut_inputs: 5
lut_delay: 0.1
fast_carry_delay: 0.02
local_wire_delay: 0.3
ff_delay: 0.05
frequency: 300
`)
	tg, err := Parse("inline", data)
	require.NoError(t, err)
	assert.Equal(t, "mydevice", tg.Name)
	assert.Equal(t, 5, tg.LUTInputs)
	assert.InDelta(t, 300.0, tg.Frequency, 1e-9)
}

func TestParse_UnknownField(t *testing.T) {
	data := []byte(`
name: mydevice
lut_input: 5
`)
	_, err := Parse("inline", data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lut_input")
}

func TestParse_SchemaViolation(t *testing.T) {
	tests := []struct {
		name string
		lut  int
	}{
		{"too many LUT inputs", 40},
		{"below smallest catalog", 2},
		{"single input", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []byte(fmt.Sprintf(`
name: mydevice
lut_inputs: %d
lut_delay: 0.1
fast_carry_delay: 0.02
local_wire_delay: 0.3
ff_delay: 0.05
frequency: 300
`, tt.lut))
			_, err := Parse("inline", data)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "inline", ve.Source)
			require.NotEmpty(t, ve.Issues)
			assert.Contains(t, ve.Error(), "invalid target inline")
		})
	}
}

func TestParse_SmallestCatalogAccepted(t *testing.T) {
	data := []byte(`
name: tiny
lut_inputs: 3
lut_delay: 0.1
fast_carry_delay: 0.02
local_wire_delay: 0.3
ff_delay: 0.05
frequency: 300
`)
	tgt, err := Parse("inline", data)
	require.NoError(t, err)
	assert.Equal(t, compressor.MinLimit, tgt.LUTInputs)
}

func TestParse_ZeroFrequencyRejected(t *testing.T) {
	data := []byte(`
name: slow
lut_inputs: 4
lut_delay: 0.1
fast_carry_delay: 0.02
local_wire_delay: 0.3
ff_delay: 0.05
frequency: 0
`)
	_, err := Parse("inline", data)
	assert.True(t, IsValidationError(err))
}

func TestParse_BadName(t *testing.T) {
	data := []byte(`
name: "Has Spaces"
lut_inputs: 4
lut_delay: 0.1
fast_carry_delay: 0.02
local_wire_delay: 0.3
ff_delay: 0.05
frequency: 100
`)
	_, err := Parse("inline", data)
	assert.True(t, IsValidationError(err))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.yaml")
	content := "name: dev\nlut_inputs: 6\nlut_delay: 0.1\nfast_carry_delay: 0.02\nlocal_wire_delay: 0.3\nff_delay: 0.05\nfrequency: 250\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	tg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "dev", tg.Name)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	tg, err := Resolve("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultName, tg.Name)

	tg, err = Resolve("virtex4", "")
	require.NoError(t, err)
	assert.Equal(t, 4, tg.LUTInputs)

	path := filepath.Join(t.TempDir(), "dev.yaml")
	content := "name: dev\nlut_inputs: 3\nlut_delay: 0.1\nfast_carry_delay: 0.02\nlocal_wire_delay: 0.3\nff_delay: 0.05\nfrequency: 250\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	tg, err = Resolve("virtex4", path)
	require.NoError(t, err)
	assert.Equal(t, 3, tg.LUTInputs)
}

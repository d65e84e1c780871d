package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, file, content string) string {
	t.Helper()
	path := filepath.Join(dir, file)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "s.yaml", `
name: sample
description: "Sample heap"
target: virtex4
max_weight: 5
bits:
  - weight: 1
    value: 1
    count: 4
    stage: 2
    timing_offset: 0.25
  - weight: 0
    value: 0
    expr: "a and b"
constant_ones: [3]
expect:
  value: 16
  compressors: 1
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "sample", s.Name)
	assert.Equal(t, "virtex4", s.Target)
	assert.Equal(t, 5, s.MaxWeight)
	require.Len(t, s.Bits, 2)
	assert.Equal(t, 4, s.Bits[0].bitCount())
	assert.Equal(t, 2, s.Bits[0].Stage)
	assert.Equal(t, 0.25, s.Bits[0].TimingOffset)
	assert.Equal(t, 1, s.Bits[1].bitCount())
	assert.Equal(t, "a and b", s.Bits[1].Expr)
	assert.Equal(t, []int{3}, s.ConstantOnes)
	require.NotNil(t, s.Expect.Value)
	assert.Equal(t, uint64(16), *s.Expect.Value)
	require.NotNil(t, s.Expect.Compressors)
	assert.Equal(t, 1, *s.Expect.Compressors)
	assert.Nil(t, s.Expect.MinWeight)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"missing name", "description: d\nmax_weight: 2\nexpect: {value: 0}\n", "name is required"},
		{"missing description", "name: a\nmax_weight: 2\nexpect: {value: 0}\n", "description is required"},
		{"unknown field", "name: a\ndescription: d\nmax_weigth: 2\n", "failed to parse YAML"},
		{"bad value", "name: a\ndescription: d\nmax_weight: 2\nbits: [{weight: 0, value: 2}]\nexpect: {value: 0}\n", "value must be 0 or 1"},
		{"negative count", "name: a\ndescription: d\nmax_weight: 2\nbits: [{weight: 0, value: 1, count: -1}]\nexpect: {value: 0}\n", "negative count"},
		{"negative stage", "name: a\ndescription: d\nmax_weight: 2\nbits: [{weight: 0, value: 1, stage: -1}]\nexpect: {value: 0}\n", "non-negative"},
		{"missing value", "name: a\ndescription: d\nmax_weight: 2\n", "expect.value is required"},
		{"too wide", "name: a\ndescription: d\nmax_weight: 65\nexpect: {value: 0}\n", "exceeds the 64 bits"},
		{"unknown code", "name: a\ndescription: d\nmax_weight: 2\nexpect: {error: BOOM}\n", "unknown error code"},
		{"error and value", "name: a\ndescription: d\nmax_weight: 2\nexpect: {error: NO_PROGRESS, value: 1}\n", "error excludes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseScenario_ErrorExpectationSkipsWidthCheck(t *testing.T) {
	s, err := ParseScenario([]byte("name: a\ndescription: d\nmax_weight: 100\nbits: [{weight: 100, value: 1}]\nexpect: {error: WEIGHT_OUT_OF_RANGE}\n"))
	require.NoError(t, err)
	assert.Equal(t, "WEIGHT_OUT_OF_RANGE", s.Expect.Error)
}

func TestLoadDir_SortedAndUnique(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "b.yaml", "name: second\ndescription: d\nmax_weight: 1\nexpect: {value: 0}\n")
	writeScenario(t, dir, "a.yaml", "name: first\ndescription: d\nmax_weight: 1\nexpect: {value: 0}\n")
	writeScenario(t, dir, "notes.txt", "ignored")

	scenarios, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "first", scenarios[0].Name)
	assert.Equal(t, "second", scenarios[1].Name)

	writeScenario(t, dir, "c.yaml", "name: first\ndescription: again\nmax_weight: 1\nexpect: {value: 0}\n")
	_, err = LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already defined")
}

func TestLoadDir_Testdata(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)
	assert.NotEmpty(t, scenarios)
}

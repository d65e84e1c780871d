package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: three_plus_two
description: one (3,1) compressor
max_weight: 4
bits:
  - {weight: 0, value: 1, count: 3}
  - {weight: 1, value: 1, count: 2}
expect:
  value: 7
  compressors: 1
`

const failingScenario = `name: wrong_sum
description: expects the wrong value
max_weight: 3
bits:
  - {weight: 0, value: 1, count: 2}
expect:
  value: 3
`

const errorScenario = `name: out_of_range
description: bit beyond the heap
max_weight: 2
bits:
  - {weight: 2, value: 1}
expect:
  error: WEIGHT_OUT_OF_RANGE
`

func scenarioDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestTestCommand_MissingArgs(t *testing.T) {
	_, _, err := execute(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommand_NonExistentDir(t *testing.T) {
	out, _, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "scenarios directory not found")
}

func TestTestCommand_Empty(t *testing.T) {
	out, _, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommand_Pass(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"a.yaml": passingScenario,
		"b.yaml": errorScenario,
	})

	out, _, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "three_plus_two")
	assert.Contains(t, out, "out_of_range")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
}

func TestTestCommand_Failure(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"a.yaml": passingScenario,
		"b.yaml": failingScenario,
	})

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "value: expected 3, got 2")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")

	out, _, err = execute(t, "test", dir, "--format", "json")
	require.Error(t, err)
	assert.Contains(t, out, `"code": "E009"`)
}

func TestTestCommand_Filter(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"a.yaml": passingScenario,
		"b.yaml": failingScenario,
	})

	out, _, err := execute(t, "test", dir, "--filter", "three_*", "--format", "json")
	require.NoError(t, err)

	var result TestResult
	decodeData(t, out, &result)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, "three_plus_two", result.Scenarios[0].Name)
	assert.Equal(t, "7", result.Scenarios[0].Value)
	assert.Equal(t, 1, result.Scenarios[0].Compressors)

	_, _, err = execute(t, "test", dir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_MalformedScenario(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"a.yaml": "name: x\n"})

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "loading scenarios")
}

func TestTestCommand_Golden(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"a.yaml": passingScenario,
		"b.yaml": errorScenario,
	})

	_, _, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)

	golden := goldenFilePath(dir, "three_plus_two")
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), "entity three_plus_two is")
	assert.NoFileExists(t, goldenFilePath(dir, "out_of_range"))

	_, _, err = execute(t, "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte("stale"), 0644))
	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "does not match golden file")
}

package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// decodeData decodes a successful JSON response into v.
func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status, out)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "bitheap", cmd.Use)
	assert.Contains(t, cmd.Long, "compressor trees")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"targets", "catalog", "generate", "test", "history", "show"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	for _, name := range []string{"multiplier", "adder"} {
		sub, _, err := cmd.Find([]string{"generate", name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, stderr, err := execute(t, "targets", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "invalid format")
}

func TestTargetsCommand(t *testing.T) {
	out, _, err := execute(t, "targets")
	require.NoError(t, err)
	assert.Contains(t, out, "virtex5")
	assert.Contains(t, out, "(default)")
	assert.Contains(t, out, "stratix4")

	out, _, err = execute(t, "targets", "--format", "json")
	require.NoError(t, err)
	var targets []map[string]any
	decodeData(t, out, &targets)
	require.Len(t, targets, 5)
	assert.Equal(t, "spartan3", targets[0]["name"])
}

func TestCatalogCommand(t *testing.T) {
	out, _, err := execute(t, "catalog", "--lut", "4", "--format", "json")
	require.NoError(t, err)

	var result CatalogResult
	decodeData(t, out, &result)
	assert.Equal(t, 4, result.LUTInputs)
	require.NotEmpty(t, result.Compressors)
	assert.Equal(t, "4_0", result.Compressors[0].Kind)
	for _, c := range result.Compressors {
		assert.LessOrEqual(t, c.Inputs0+2*c.Inputs1, 4)
	}
}

func TestCatalogCommand_TargetAndErrors(t *testing.T) {
	out, _, err := execute(t, "catalog", "--target", "virtex6")
	require.NoError(t, err)
	assert.Contains(t, out, "for 6-input LUTs")
	assert.Contains(t, out, "6_0")

	out, _, err = execute(t, "catalog", "--target", "virtex9")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]")

	out, _, err = execute(t, "catalog", "--lut", "2")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}

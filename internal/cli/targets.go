package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bitheap/internal/target"
)

// NewTargetsCommand creates the targets command.
func NewTargetsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List built-in target devices",
		Long: `List the built-in target presets with their LUT input count and
delay constants (nanoseconds).

Any command taking --target also accepts --target-file with a YAML
device description instead of a preset name.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTargets(rootOpts, cmd)
		},
	}
}

func runTargets(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	names := target.PresetNames()
	targets := make([]*target.Target, len(names))
	for i, name := range names {
		targets[i] = target.MustPreset(name)
	}

	if formatter.Format == "json" {
		return formatter.Success(targets)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%-10s %4s %8s %8s %8s %8s\n", "NAME", "LUT", "LUT(ns)", "CARRY", "WIRE", "MHZ")
	for _, t := range targets {
		marker := ""
		if t.Name == target.DefaultName {
			marker = " (default)"
		}
		fmt.Fprintf(w, "%-10s %4d %8.3f %8.3f %8.3f %8.0f%s\n",
			t.Name, t.LUTInputs, t.LUTDelay, t.FastCarryDelay, t.LocalWireDelay, t.Frequency, marker)
	}
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bitheap/internal/compressor"
	"github.com/roach88/bitheap/internal/target"
)

// CatalogOptions holds flags for the catalog command.
type CatalogOptions struct {
	*RootOptions
	LUTInputs  int
	Target     string
	TargetFile string
}

// CatalogEntry describes one compressor of a catalog.
type CatalogEntry struct {
	Kind     string `json:"kind"`
	Inputs0  int    `json:"inputs0"`
	Inputs1  int    `json:"inputs1"`
	Outputs  int    `json:"outputs"`
	MaxValue int    `json:"max_value"`
}

// CatalogResult is the output of the catalog command.
type CatalogResult struct {
	LUTInputs   int            `json:"lut_inputs"`
	Compressors []CatalogEntry `json:"compressors"`
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the compressors available for a LUT size",
		Long: `List the compressor catalog in selection order: widest
column-0 input count first, then most column-1 inputs.

The LUT size comes from --lut, or from the target (default virtex5).

Examples:
  bitheap catalog
  bitheap catalog --lut 4
  bitheap catalog --target stratix4 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.LUTInputs, "lut", 0, "LUT input count (overrides the target)")
	addTargetFlags(cmd, &opts.Target, &opts.TargetFile)

	return cmd
}

// addTargetFlags registers the flags selecting a target.
func addTargetFlags(cmd *cobra.Command, name, file *string) {
	cmd.Flags().StringVar(name, "target", "", fmt.Sprintf("target preset %v (default %s)", target.PresetNames(), target.DefaultName))
	cmd.Flags().StringVar(file, "target-file", "", "YAML target description (overrides --target)")
}

func runCatalog(opts *CatalogOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	limit := opts.LUTInputs
	if limit == 0 {
		t, err := target.Resolve(opts.Target, opts.TargetFile)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeTarget, "resolving target", err)
		}
		limit = t.LUTInputs
	}

	cat, err := compressor.Build(limit)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgument, "building catalog", err)
	}

	result := CatalogResult{LUTInputs: cat.Limit()}
	for _, c := range cat.Entries() {
		result.Compressors = append(result.Compressors, CatalogEntry{
			Kind:     c.Kind(),
			Inputs0:  c.Inputs0,
			Inputs1:  c.Inputs1,
			Outputs:  c.Outputs(),
			MaxValue: c.MaxValue(),
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%d compressor(s) for %d-input LUTs\n\n", len(result.Compressors), result.LUTInputs)
	fmt.Fprintf(w, "%-8s %4s %4s %7s %5s\n", "KIND", "X0", "X1", "OUTPUTS", "MAX")
	for _, e := range result.Compressors {
		fmt.Fprintf(w, "%-8s %4d %4d %7d %5d\n", e.Kind, e.Inputs0, e.Inputs1, e.Outputs, e.MaxValue)
	}
	return nil
}

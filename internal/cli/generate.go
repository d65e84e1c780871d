package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/bitheap/internal/ir"
	"github.com/roach88/bitheap/internal/metrics"
	"github.com/roach88/bitheap/internal/operator"
	"github.com/roach88/bitheap/internal/store"
	"github.com/roach88/bitheap/internal/target"
)

// GenerateOptions holds flags shared by the generate subcommands.
type GenerateOptions struct {
	*RootOptions
	Target      string
	TargetFile  string
	Output      string // VHDL output file; stdout when empty
	Database    string // run history; not recorded when empty
	MetricsFile string // Prometheus text file; not written when empty
	Check       int    // random vectors to simulate
	Seed        uint64

	// ids generates run IDs; tests replace it.
	ids store.RunIDGenerator
}

// GenerateResult summarizes one generated operator.
type GenerateResult struct {
	RunID          string               `json:"run_id,omitempty"`
	Seq            int64                `json:"seq,omitempty"`
	Operator       string               `json:"operator"`
	Target         string               `json:"target"`
	LUTInputs      int                  `json:"lut_inputs"`
	MaxWeight      int                  `json:"max_weight"`
	MinWeight      int                  `json:"min_weight"`
	SourceBits     int                  `json:"source_bits"`
	AdderWidth     int                  `json:"adder_width"`
	Stage          int                  `json:"stage"`
	TimingOffsetPS int64                `json:"timing_offset_ps"`
	Dropped        int                  `json:"dropped"`
	Compressors    []ir.CompressorCount `json:"compressors"`
	HeapHash       string               `json:"heap_hash"`
	PlanHash       string               `json:"plan_hash"`
	Checked        int                  `json:"checked"`
	Output         string               `json:"output,omitempty"`
	VHDL           string               `json:"vhdl,omitempty"`
}

// NewGenerateCommand creates the generate command and its operator
// subcommands.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts, ids: store.UUIDv7Generator{}}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an operator as VHDL",
		Long: `Generate an arithmetic operator whose bits are reduced by a bit heap.

The VHDL is written to --output, or to stdout when --output is not set.
With --db the run is recorded in the history database; with --check N
the reduction plan is simulated on N random input vectors and compared
with the operator's arithmetic.

Exit codes:
  0 - Generated (and checked)
  1 - Generation failed or the check found a mismatch
  2 - Command error (invalid flags, unknown target, etc.)

Examples:
  bitheap generate multiplier --wx 8 --wy 8 -o mult.vhd
  bitheap generate multiplier --wx 12 --wy 9 --signed --check 1000
  bitheap generate adder --n 5 --w 16 --target virtex4 --db runs.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.Target, "target", "", fmt.Sprintf("target preset %v (default %s)", target.PresetNames(), target.DefaultName))
	f.StringVar(&opts.TargetFile, "target-file", "", "YAML target description (overrides --target)")
	f.StringVarP(&opts.Output, "output", "o", "", "VHDL output file")
	f.StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	f.StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	f.IntVar(&opts.Check, "check", 0, "simulate N random input vectors")
	f.Uint64Var(&opts.Seed, "seed", 1, "seed of the check vectors")

	cmd.AddCommand(newMultiplierCommand(opts))
	cmd.AddCommand(newAdderCommand(opts))

	return cmd
}

func newMultiplierCommand(opts *GenerateOptions) *cobra.Command {
	var wX, wY int
	var signed bool

	cmd := &cobra.Command{
		Use:           "multiplier",
		Short:         "Integer multiplier producing the full product",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if wX < 1 || wY < 1 {
				return newFormatter(opts.RootOptions, cmd).Fail(ExitCommandError, ErrCodeInvalidArgument,
					fmt.Sprintf("operand widths must be positive, got --wx %d --wy %d", wX, wY), nil)
			}
			return runGenerate(opts, cmd, func(o operator.Options) (operator.Generator, error) {
				return operator.NewIntMultiplier(wX, wY, signed, o)
			})
		},
	}

	cmd.Flags().IntVar(&wX, "wx", 8, "width of X")
	cmd.Flags().IntVar(&wY, "wy", 8, "width of Y")
	cmd.Flags().BoolVar(&signed, "signed", false, "two's complement operands")

	return cmd
}

func newAdderCommand(opts *GenerateOptions) *cobra.Command {
	var n, w int
	var signed bool

	cmd := &cobra.Command{
		Use:           "adder",
		Short:         "Multi-operand adder",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if n < 2 || w < 1 {
				return newFormatter(opts.RootOptions, cmd).Fail(ExitCommandError, ErrCodeInvalidArgument,
					fmt.Sprintf("need at least 2 operands of at least 1 bit, got --n %d --w %d", n, w), nil)
			}
			return runGenerate(opts, cmd, func(o operator.Options) (operator.Generator, error) {
				return operator.NewMultiAdder(n, w, signed, o)
			})
		},
	}

	cmd.Flags().IntVar(&n, "n", 3, "number of operands")
	cmd.Flags().IntVar(&w, "w", 8, "operand width")
	cmd.Flags().BoolVar(&signed, "signed", false, "two's complement operands")

	return cmd
}

type buildFunc func(operator.Options) (operator.Generator, error)

func runGenerate(opts *GenerateOptions, cmd *cobra.Command, build buildFunc) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Check < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgument, "--check must not be negative", nil)
	}

	tgt, err := target.Resolve(opts.Target, opts.TargetFile)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeTarget, "resolving target", err)
	}
	formatter.VerboseLog("Target %s: %d-input LUTs", tgt.Name, tgt.LUTInputs)

	collector := metrics.New()
	g, err := build(operator.Options{
		Target:  tgt,
		Logger:  opts.Logger(),
		Metrics: collector,
	})
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGenerate, "generating operator", err)
	}
	formatter.VerboseLog("Generated %s", g.Name())

	result, err := summarize(g, tgt)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGenerate, "hashing heap", err)
	}

	if opts.Check > 0 {
		if err := operator.Check(ctx, g, opts.Check, opts.Seed); err != nil {
			var mismatch *operator.MismatchError
			if errors.As(err, &mismatch) {
				return formatter.Fail(ExitFailure, ErrCodeCheckFailed, "plan disagrees with emulation", err)
			}
			return formatter.Fail(ExitFailure, ErrCodeGeneric, "checking plan", err)
		}
		result.Checked = opts.Check
		formatter.VerboseLog("Checked %d random vector(s)", opts.Check)
	}

	text := g.Entity().Render()
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(text), 0644); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "writing VHDL", err)
		}
		result.Output = opts.Output
	}

	if opts.Database != "" {
		if err := recordRun(ctx, opts, result, text); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "recording run", err)
		}
		formatter.VerboseLog("Recorded run %s (seq %d)", result.RunID, result.Seq)
	}

	if opts.MetricsFile != "" {
		if err := collector.WriteTextfile(opts.MetricsFile); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "writing metrics", err)
		}
	}

	if formatter.Format == "json" {
		if opts.Output == "" {
			result.VHDL = text
		}
		return formatter.Success(result)
	}

	if opts.Output == "" {
		fmt.Fprint(formatter.Writer, text)
		return nil
	}
	printGenerateSummary(formatter, result)
	return nil
}

// summarize collects the figures of a generated operator.
func summarize(g operator.Generator, tgt *target.Target) (*GenerateResult, error) {
	res := g.Result()
	plan := res.Plan

	heapHash, err := g.Heap().Hash()
	if err != nil {
		return nil, err
	}
	planHash, err := plan.Hash()
	if err != nil {
		return nil, err
	}

	return &GenerateResult{
		Operator:       g.Name(),
		Target:         tgt.Name,
		LUTInputs:      g.Heap().Catalog().Limit(),
		MaxWeight:      plan.MaxWeight,
		MinWeight:      plan.MinWeight,
		SourceBits:     len(plan.Sources),
		AdderWidth:     plan.AdderWidth(),
		Stage:          res.Stage,
		TimingOffsetPS: ir.Picoseconds(res.TimingOffset),
		Dropped:        plan.Dropped,
		Compressors:    plan.CompressorCounts(),
		HeapHash:       heapHash,
		PlanHash:       planHash,
	}, nil
}

func recordRun(ctx context.Context, opts *GenerateOptions, result *GenerateResult, text string) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	run := &ir.Run{
		ID:            opts.ids.Generate(),
		Operator:      result.Operator,
		Target:        result.Target,
		LUTInputs:     result.LUTInputs,
		MaxWeight:     result.MaxWeight,
		MinWeight:     result.MinWeight,
		SourceBits:    result.SourceBits,
		AdderWidth:    result.AdderWidth,
		Stages:        result.Stage,
		HeapHash:      result.HeapHash,
		PlanHash:      result.PlanHash,
		Compressors:   result.Compressors,
		VHDL:          text,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}
	seq, err := st.WriteRun(ctx, run)
	if err != nil {
		return err
	}
	result.RunID = run.ID
	result.Seq = seq
	return nil
}

func printGenerateSummary(f *OutputFormatter, r *GenerateResult) {
	w := f.Writer
	fmt.Fprintf(w, "\u2713 Generated %s for %s\n\n", r.Operator, r.Target)
	fmt.Fprintf(w, "  Source bits:  %d\n", r.SourceBits)
	fmt.Fprintf(w, "  Compressors:  %s\n", formatCompressors(r.Compressors))
	fmt.Fprintf(w, "  Adder:        %d bit(s) from weight %d\n", r.AdderWidth, r.MinWeight)
	fmt.Fprintf(w, "  Latency:      stage %d + %d ps\n", r.Stage, r.TimingOffsetPS)
	if r.Dropped > 0 {
		fmt.Fprintf(w, "  Dropped:      %d overflow bit(s)\n", r.Dropped)
	}
	if r.Checked > 0 {
		fmt.Fprintf(w, "  Checked:      %d vector(s)\n", r.Checked)
	}
	if r.RunID != "" {
		fmt.Fprintf(w, "  Run:          %s (seq %d)\n", r.RunID, r.Seq)
	}
	fmt.Fprintf(w, "\nWrote VHDL to %s\n", r.Output)
}

// formatCompressors renders a histogram as "6_0 x3, 3_1 x1".
func formatCompressors(counts []ir.CompressorCount) string {
	if len(counts) == 0 {
		return "none"
	}
	s := ""
	for i, c := range counts {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s x%d", c.Kind, c.Count)
	}
	return s
}

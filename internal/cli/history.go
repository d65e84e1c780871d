package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/bitheap/internal/ir"
	"github.com/roach88/bitheap/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	HeapHash string
	PlanHash string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded generation runs",
		Long: `List the runs recorded by "generate --db", oldest first.

Runs with the same heap hash reduced the same bits; runs with the same
plan hash produced the same compressor tree.

Examples:
  bitheap history --db runs.db
  bitheap history --db runs.db --limit 5
  bitheap history --db runs.db --heap-hash <hash> --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "most recent runs to list (-1 for all)")
	cmd.Flags().StringVar(&opts.HeapHash, "heap-hash", "", "only runs with this heap hash")
	cmd.Flags().StringVar(&opts.PlanHash, "plan-hash", "", "only runs with this plan hash")
	cmd.MarkFlagsMutuallyExclusive("heap-hash", "plan-hash")

	return cmd
}

// openExisting opens a history database that must already exist, so a
// mistyped path is reported instead of creating an empty database.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return store.Open(path)
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openExisting(opts.Database)
	if err != nil {
		if os.IsNotExist(err) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
		}
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	var runs []ir.Run
	switch {
	case opts.HeapHash != "":
		runs, err = st.FindRunsByHeapHash(ctx, opts.HeapHash)
	case opts.PlanHash != "":
		runs, err = st.FindRunsByPlanHash(ctx, opts.PlanHash)
	default:
		runs, err = st.ListRuns(ctx, opts.Limit)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to query runs", err)
	}
	if runs == nil {
		runs = []ir.Run{}
	}

	if formatter.Format == "json" {
		return formatter.Success(runs)
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	fmt.Fprintf(w, "%-5s %-36s %-32s %-9s %5s %5s %6s\n", "SEQ", "ID", "OPERATOR", "TARGET", "CMPS", "ADDER", "STAGES")
	for _, r := range runs {
		fmt.Fprintf(w, "%-5d %-36s %-32s %-9s %5d %5d %6d\n",
			r.Seq, r.ID, r.Operator, r.Target, r.TotalCompressors(), r.AdderWidth, r.Stages)
	}
	return nil
}

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
	VHDL     bool
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one recorded run",
		Long: `Show the figures of a recorded run, or its VHDL with --vhdl.

Examples:
  bitheap show --db runs.db 0190a6c2-...
  bitheap show --db runs.db 0190a6c2-... --vhdl > mult.vhd`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().BoolVar(&opts.VHDL, "vhdl", false, "print the stored VHDL")

	return cmd
}

func runShow(opts *ShowOptions, id string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openExisting(opts.Database)
	if err != nil {
		if os.IsNotExist(err) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
		}
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	run, err := st.ReadRun(ctx, id)
	if errors.Is(err, store.ErrRunNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run not found: %s", id), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to read run", err)
	}

	if opts.VHDL && formatter.Format != "json" {
		fmt.Fprint(formatter.Writer, run.VHDL)
		return nil
	}
	if !opts.VHDL {
		run.VHDL = ""
	}
	if formatter.Format == "json" {
		return formatter.Success(run)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run %s (seq %d)\n\n", run.ID, run.Seq)
	fmt.Fprintf(w, "  Operator:     %s\n", run.Operator)
	fmt.Fprintf(w, "  Target:       %s (%d-input LUTs)\n", run.Target, run.LUTInputs)
	fmt.Fprintf(w, "  Heap:         %d source bit(s) over %d column(s)\n", run.SourceBits, run.MaxWeight)
	fmt.Fprintf(w, "  Compressors:  %s\n", formatCompressors(run.Compressors))
	fmt.Fprintf(w, "  Adder:        %d bit(s) from weight %d\n", run.AdderWidth, run.MinWeight)
	fmt.Fprintf(w, "  Stages:       %d\n", run.Stages)
	fmt.Fprintf(w, "  Heap hash:    %s\n", run.HeapHash)
	fmt.Fprintf(w, "  Plan hash:    %s\n", run.PlanHash)
	fmt.Fprintf(w, "  Engine:       %s (IR %s)\n", run.EngineVersion, run.IRVersion)
	return nil
}

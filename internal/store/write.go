package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/bitheap/internal/ir"
)

// WriteRun appends a run. The store assigns the next logical sequence
// number inside the insert transaction and returns it; run.Seq is updated.
// Writing an ID twice is an error, since runs are never rewritten.
func (s *Store) WriteRun(ctx context.Context, run *ir.Run) (int64, error) {
	if run.ID == "" {
		return 0, errors.New("write run: empty run id")
	}

	vhdl, err := compressVHDL(run.VHDL)
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("write run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, operator, target, lut_inputs, max_weight, min_weight, source_bits,
		 adder_width, stages, heap_hash, plan_hash, vhdl_zstd, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		seq,
		run.Operator,
		run.Target,
		run.LUTInputs,
		run.MaxWeight,
		run.MinWeight,
		run.SourceBits,
		run.AdderWidth,
		run.Stages,
		run.HeapHash,
		run.PlanHash,
		vhdl,
		run.EngineVersion,
		run.IRVersion,
	)
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}

	for _, c := range run.Compressors {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_compressors (run_id, kind, count)
			VALUES (?, ?, ?)
		`, run.ID, c.Kind, c.Count)
		if err != nil {
			return 0, fmt.Errorf("write run compressors: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write run: commit: %w", err)
	}
	run.Seq = seq
	return seq, nil
}

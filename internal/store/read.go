package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/bitheap/internal/ir"
)

// ErrRunNotFound is returned by ReadRun for an unknown ID.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, seq, operator, target, lut_inputs, max_weight, min_weight, source_bits,
	adder_width, stages, heap_hash, plan_hash, engine_version, ir_version`

// ReadRun returns the run with the given ID, VHDL included.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`, vhdl_zstd
		FROM runs
		WHERE id = ?
	`, id)

	var run ir.Run
	var vhdl []byte
	err := row.Scan(
		&run.ID, &run.Seq, &run.Operator, &run.Target, &run.LUTInputs,
		&run.MaxWeight, &run.MinWeight, &run.SourceBits, &run.AdderWidth, &run.Stages,
		&run.HeapHash, &run.PlanHash, &run.EngineVersion, &run.IRVersion, &vhdl,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return ir.Run{}, fmt.Errorf("read run %s: %w", id, err)
	}

	run.VHDL, err = decompressVHDL(vhdl)
	if err != nil {
		return ir.Run{}, fmt.Errorf("read run %s: %w", id, err)
	}

	run.Compressors, err = s.readCompressors(ctx, id)
	if err != nil {
		return ir.Run{}, err
	}
	return run, nil
}

// ListRuns returns run summaries (no VHDL) ordered by seq.
// A positive limit keeps only the most recent runs.
//
// Returns an empty slice (not nil) if the store holds no runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]ir.Run, error) {
	query := `
		SELECT ` + runColumns + `
		FROM (SELECT * FROM runs ORDER BY seq DESC LIMIT ?)
		ORDER BY seq ASC
	`
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	return s.queryRuns(ctx, query, limit)
}

// FindRunsByHeapHash returns summaries of the runs that reduced the same
// heap, ordered by seq.
func (s *Store) FindRunsByHeapHash(ctx context.Context, hash string) ([]ir.Run, error) {
	return s.queryRuns(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE heap_hash = ?
		ORDER BY seq ASC
	`, hash)
}

// FindRunsByPlanHash returns summaries of the runs that produced the same
// plan, ordered by seq.
func (s *Store) FindRunsByPlanHash(ctx context.Context, hash string) ([]ir.Run, error) {
	return s.queryRuns(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE plan_hash = ?
		ORDER BY seq ASC
	`, hash)
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]ir.Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.Run{}
	for rows.Next() {
		var run ir.Run
		if err := rows.Scan(
			&run.ID, &run.Seq, &run.Operator, &run.Target, &run.LUTInputs,
			&run.MaxWeight, &run.MinWeight, &run.SourceBits, &run.AdderWidth, &run.Stages,
			&run.HeapHash, &run.PlanHash, &run.EngineVersion, &run.IRVersion,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	// Histograms are read after the cursor is closed: the pool holds a
	// single connection.
	rows.Close()
	for i := range runs {
		runs[i].Compressors, err = s.readCompressors(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// readCompressors returns the histogram of a run, widest kind first.
func (s *Store) readCompressors(ctx context.Context, runID string) ([]ir.CompressorCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, count
		FROM run_compressors
		WHERE run_id = ?
		ORDER BY CAST(kind AS INTEGER) DESC,
		         CAST(substr(kind, instr(kind, '_') + 1) AS INTEGER) DESC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query compressors: %w", err)
	}
	defer rows.Close()

	counts := []ir.CompressorCount{}
	for rows.Next() {
		var c ir.CompressorCount
		if err := rows.Scan(&c.Kind, &c.Count); err != nil {
			return nil, fmt.Errorf("scan compressor: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compressors: %w", err)
	}
	return counts, nil
}

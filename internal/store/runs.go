package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mzavyalov/bankdm/internal/model"
)

// BeginRun creates a STARTED run-ledger record and returns its run_id.
// The batch token correlates all runs of one driver invocation.
func (s *Store) BeginRun(ctx context.Context, batchToken, stage, note string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO etl_runs (batch_token, stage, status, note)
		VALUES (?, ?, 'STARTED', ?)
	`, batchToken, stage, note)
	if err != nil {
		return 0, fmt.Errorf("begin run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("begin run: last insert id: %w", err)
	}
	return runID, nil
}

// CompleteRun marks a run SUCCESS or FAILED, recording rows loaded and a
// note. The run ledger is a pure audit sink: each record is updated exactly
// once and never deleted by the engine.
func (s *Store) CompleteRun(ctx context.Context, runID int64, status string, rowsLoaded int64, note string) error {
	if status != model.RunSuccess && status != model.RunFailed {
		return fmt.Errorf("complete run %d: invalid status %q", runID, status)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE etl_runs
		SET finished_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now'),
		    status      = ?,
		    rows_loaded = ?,
		    note        = CASE WHEN ? != '' THEN ? ELSE note END
		WHERE run_id = ? AND status = 'STARTED'
	`, status, rowsLoaded, note, note, runID)
	if err != nil {
		return fmt.Errorf("complete run %d: %w", runID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete run %d: rows affected: %w", runID, err)
	}
	if n == 0 {
		return fmt.Errorf("complete run %d: no STARTED record", runID)
	}
	return nil
}

// Run returns a single run-ledger record by id.
func (s *Store) Run(ctx context.Context, runID int64) (model.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, batch_token, stage, started_at, finished_at, status, rows_loaded, note
		FROM etl_runs
		WHERE run_id = ?
	`, runID)
	return scanRun(row.Scan)
}

// RunsByBatch returns all run records sharing a batch token, oldest first.
func (s *Store) RunsByBatch(ctx context.Context, batchToken string) ([]model.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, batch_token, stage, started_at, finished_at, status, rows_loaded, note
		FROM etl_runs
		WHERE batch_token = ?
		ORDER BY run_id ASC
	`, batchToken)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []model.Run
	for rows.Next() {
		r, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

func scanRun(scan func(dest ...any) error) (model.Run, error) {
	var (
		r        model.Run
		finished sql.NullString
	)
	if err := scan(&r.RunID, &r.BatchToken, &r.Stage, &r.StartedAt, &finished,
		&r.Status, &r.RowsLoaded, &r.Note); err != nil {
		return model.Run{}, fmt.Errorf("scan run: %w", err)
	}
	r.FinishedAt = finished.String
	return r, nil
}

package store

import (
	"context"
	"testing"

	"github.com/mzavyalov/bankdm/internal/model"
)

func TestRunLifecycle_Success(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	runID, err := s.BeginRun(ctx, "batch-1", "calc_turnover", "2018-01-09")
	if err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}

	r, err := s.Run(ctx, runID)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if r.Status != model.RunStarted {
		t.Errorf("status = %q, want STARTED", r.Status)
	}
	if r.FinishedAt != "" {
		t.Errorf("finished_at = %q before completion, want empty", r.FinishedAt)
	}

	if err := s.CompleteRun(ctx, runID, model.RunSuccess, 42, ""); err != nil {
		t.Fatalf("CompleteRun() failed: %v", err)
	}

	r, err = s.Run(ctx, runID)
	if err != nil {
		t.Fatalf("Run() after complete failed: %v", err)
	}
	if r.Status != model.RunSuccess {
		t.Errorf("status = %q, want SUCCESS", r.Status)
	}
	if r.RowsLoaded != 42 {
		t.Errorf("rows_loaded = %d, want 42", r.RowsLoaded)
	}
	if r.FinishedAt == "" {
		t.Error("finished_at empty after completion")
	}
	if r.Note != "2018-01-09" {
		t.Errorf("note = %q, want original note preserved", r.Note)
	}
}

func TestRunLifecycle_FailureKeepsNote(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	runID, err := s.BeginRun(ctx, "batch-1", "calc_balance", "2018-01-09")
	if err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}
	if err := s.CompleteRun(ctx, runID, model.RunFailed, 0, "no balances for prior day"); err != nil {
		t.Fatalf("CompleteRun() failed: %v", err)
	}

	r, err := s.Run(ctx, runID)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if r.Status != model.RunFailed {
		t.Errorf("status = %q, want FAILED", r.Status)
	}
	if r.Note != "no balances for prior day" {
		t.Errorf("note = %q, want failure note", r.Note)
	}
}

func TestCompleteRun_ExactlyOnce(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	runID, err := s.BeginRun(ctx, "batch-1", "calc_turnover", "")
	if err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}
	if err := s.CompleteRun(ctx, runID, model.RunSuccess, 1, ""); err != nil {
		t.Fatalf("first CompleteRun() failed: %v", err)
	}
	if err := s.CompleteRun(ctx, runID, model.RunFailed, 0, "late"); err == nil {
		t.Error("second CompleteRun() succeeded, want error")
	}

	r, err := s.Run(ctx, runID)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if r.Status != model.RunSuccess {
		t.Errorf("status = %q after double complete, want SUCCESS", r.Status)
	}
}

func TestCompleteRun_RejectsInvalidStatus(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	runID, err := s.BeginRun(ctx, "batch-1", "calc_turnover", "")
	if err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}
	if err := s.CompleteRun(ctx, runID, "DONE", 0, ""); err == nil {
		t.Error("CompleteRun() with invalid status succeeded, want error")
	}
}

func TestRunsByBatch_OrderedByRunID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	stages := []string{"calc_turnover", "calc_balance", "calc_f101"}
	for _, stage := range stages {
		if _, err := s.BeginRun(ctx, "batch-1", stage, ""); err != nil {
			t.Fatalf("BeginRun(%s) failed: %v", stage, err)
		}
	}
	if _, err := s.BeginRun(ctx, "batch-2", "calc_turnover", ""); err != nil {
		t.Fatalf("BeginRun() for other batch failed: %v", err)
	}

	runs, err := s.RunsByBatch(ctx, "batch-1")
	if err != nil {
		t.Fatalf("RunsByBatch() failed: %v", err)
	}
	if len(runs) != len(stages) {
		t.Fatalf("got %d runs, want %d", len(runs), len(stages))
	}
	for i, r := range runs {
		if r.Stage != stages[i] {
			t.Errorf("run %d stage = %q, want %q", i, r.Stage, stages[i])
		}
	}
}

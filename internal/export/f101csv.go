// Package export moves F101 summary rows between the warehouse and CSV,
// for downstream delivery and for re-importing manually corrected extracts.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mzavyalov/bankdm/internal/model"
	"github.com/mzavyalov/bankdm/internal/store"
)

// f101Columns is the CSV header, in dm_f101 column order.
var f101Columns = []string{
	"from_date", "to_date", "chapter", "ledger_account", "characteristic",
	"balance_in_rub", "balance_in_val", "balance_in_total",
	"turn_deb_rub", "turn_deb_val", "turn_deb_total",
	"turn_cre_rub", "turn_cre_val", "turn_cre_total",
	"balance_out_rub", "balance_out_val", "balance_out_total",
}

// Exchanger exports and imports F101 extracts. All run-ledger rows of one
// Exchanger share a batch token.
type Exchanger struct {
	st         *store.Store
	batchToken string
}

// New creates an Exchanger over the given store.
func New(st *store.Store) *Exchanger {
	return &Exchanger{
		st:         st,
		batchToken: uuid.Must(uuid.NewV7()).String(),
	}
}

// ExportFile writes the summary rows for a to_date to a CSV file, with a
// run-ledger record around the export.
func (e *Exchanger) ExportFile(ctx context.Context, toDate model.Date, path string) (int64, error) {
	runID, err := e.st.BeginRun(ctx, e.batchToken, "export_f101", path)
	if err != nil {
		return 0, err
	}

	rows, err := e.exportFile(ctx, toDate, path)
	if err != nil {
		if cerr := e.st.CompleteRun(ctx, runID, model.RunFailed, 0, err.Error()); cerr != nil {
			slog.Error("failed to record export failure", "run_id", runID, "error", cerr)
		}
		return 0, err
	}

	if err := e.st.CompleteRun(ctx, runID, model.RunSuccess, rows, ""); err != nil {
		return rows, err
	}
	slog.Info("f101 exported", "to_date", toDate.String(), "rows", rows, "path", path)
	return rows, nil
}

func (e *Exchanger) exportFile(ctx context.Context, toDate model.Date, path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	rows, err := Write(ctx, e.st, toDate, f)
	if err != nil {
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", path, err)
	}
	return rows, nil
}

// Write streams the summary rows for a to_date to w as CSV, ordered by
// (ledger_account, characteristic). Returns the number of data rows.
func Write(ctx context.Context, st *store.Store, toDate model.Date, w io.Writer) (int64, error) {
	rows, err := st.F101ByToDate(ctx, toDate)
	if err != nil {
		return 0, fmt.Errorf("export f101: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(f101Columns); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.FromDate.String(), r.ToDate.String(), r.Chapter, r.LedgerAccount, r.Characteristic,
			r.BalanceInRub.String(), r.BalanceInVal.String(), r.BalanceInTotal.String(),
			r.TurnDebRub.String(), r.TurnDebVal.String(), r.TurnDebTotal.String(),
			r.TurnCreRub.String(), r.TurnCreVal.String(), r.TurnCreTotal.String(),
			r.BalanceOutRub.String(), r.BalanceOutVal.String(), r.BalanceOutTotal.String(),
		}
		if err := cw.Write(rec); err != nil {
			return 0, fmt.Errorf("write row %s/%s: %w", r.LedgerAccount, r.Characteristic, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	return int64(len(rows)), nil
}

// ImportFile loads a previously exported (possibly hand-corrected) CSV into
// the dm_f101_v2 copy table, truncating it first, with a run-ledger record
// around the import.
func (e *Exchanger) ImportFile(ctx context.Context, path string) (int64, error) {
	runID, err := e.st.BeginRun(ctx, e.batchToken, "import_f101", path)
	if err != nil {
		return 0, err
	}

	rows, err := e.importFile(ctx, path)
	if err != nil {
		if cerr := e.st.CompleteRun(ctx, runID, model.RunFailed, 0, err.Error()); cerr != nil {
			slog.Error("failed to record import failure", "run_id", runID, "error", cerr)
		}
		return 0, err
	}

	if err := e.st.CompleteRun(ctx, runID, model.RunSuccess, rows, ""); err != nil {
		return rows, err
	}
	slog.Info("f101 imported", "rows", rows, "path", path)
	return rows, nil
}

func (e *Exchanger) importFile(ctx context.Context, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(ctx, e.st, f)
}

// Read parses a F101 CSV from r and replaces the dm_f101_v2 contents with
// its rows. Returns the number of rows loaded.
func Read(ctx context.Context, st *store.Store, r io.Reader) (int64, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("import f101: parse csv: %w", err)
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("import f101: empty file")
	}

	header := records[0]
	if len(header) != len(f101Columns) {
		return 0, fmt.Errorf("import f101: expected %d columns, got %d", len(f101Columns), len(header))
	}
	for i, col := range f101Columns {
		if header[i] != col {
			return 0, fmt.Errorf("import f101: column %d is %q, expected %q", i, header[i], col)
		}
	}

	rows := make([]model.F101Row, 0, len(records)-1)
	for n, rec := range records[1:] {
		row, err := parseRow(rec)
		if err != nil {
			return 0, fmt.Errorf("import f101: line %d: %w", n+2, err)
		}
		rows = append(rows, row)
	}

	if err := st.ReplaceF101V2(ctx, rows); err != nil {
		return 0, fmt.Errorf("import f101: %w", err)
	}
	return int64(len(rows)), nil
}

func parseRow(rec []string) (model.F101Row, error) {
	var (
		r   model.F101Row
		err error
	)
	if len(rec) != len(f101Columns) {
		return r, fmt.Errorf("expected %d fields, got %d", len(f101Columns), len(rec))
	}
	if r.FromDate, err = model.ParseDate(rec[0]); err != nil {
		return r, err
	}
	if r.ToDate, err = model.ParseDate(rec[1]); err != nil {
		return r, err
	}
	r.Chapter = rec[2]
	r.LedgerAccount = rec[3]
	r.Characteristic = rec[4]

	decFields := []struct {
		dst *decimal.Decimal
		raw string
	}{
		{&r.BalanceInRub, rec[5]}, {&r.BalanceInVal, rec[6]}, {&r.BalanceInTotal, rec[7]},
		{&r.TurnDebRub, rec[8]}, {&r.TurnDebVal, rec[9]}, {&r.TurnDebTotal, rec[10]},
		{&r.TurnCreRub, rec[11]}, {&r.TurnCreVal, rec[12]}, {&r.TurnCreTotal, rec[13]},
		{&r.BalanceOutRub, rec[14]}, {&r.BalanceOutVal, rec[15]}, {&r.BalanceOutTotal, rec[16]},
	}
	for _, f := range decFields {
		if *f.dst, err = decimal.NewFromString(f.raw); err != nil {
			return r, fmt.Errorf("parse amount %q: %w", f.raw, err)
		}
	}
	return r, nil
}

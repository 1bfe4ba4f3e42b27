// Package csvload bulk-loads the six source extracts into the warehouse.
//
// The loader mirrors the upstream delivery quirks: semicolon-delimited
// files in assorted encodings, headers in arbitrary case, snapshot dates in
// DD.MM.YYYY, posting dates in DD-MM-YYYY, oversized currency codes. Rows
// that duplicate another row exactly are dropped (all copies), rows with
// unparseable dates are dropped, and inserts use INSERT OR IGNORE so
// re-loading the same extract is idempotent.
package csvload

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mzavyalov/bankdm/internal/model"
	"github.com/mzavyalov/bankdm/internal/store"
)

// Source file name per table.
var sourceFiles = []struct {
	table string
	file  string
}{
	{"md_ledger_account", "md_ledger_account_s.csv"},
	{"md_exchange_rate", "md_exchange_rate_d.csv"},
	{"ft_balance", "ft_balance_f.csv"},
	{"md_account", "md_account_d.csv"},
	{"md_currency", "md_currency_d.csv"},
	{"ft_posting", "ft_posting_f.csv"},
}

// TableReport summarizes one table load.
type TableReport struct {
	Table    string
	File     string
	Read     int    // data rows read from the file
	Dropped  int    // duplicates and rows with bad dates
	Inserted int64  // rows actually inserted
	Skipped  bool   // file missing
	Err      string // non-empty if this table's load failed
}

// Report summarizes a directory load.
type Report struct {
	Tables []TableReport
}

// Loader loads source CSV extracts into the store. All run-ledger rows of
// one Loader share a batch token.
type Loader struct {
	st         *store.Store
	batchToken string
}

// New creates a Loader over the given store.
func New(st *store.Store) *Loader {
	return &Loader{
		st:         st,
		batchToken: uuid.Must(uuid.NewV7()).String(),
	}
}

// LoadDir loads every known source file found in dir. A missing file is
// skipped with a log line, not an error; a malformed file fails its table
// load but does not abort the remaining tables.
func (l *Loader) LoadDir(ctx context.Context, dir string) (Report, error) {
	var (
		report   Report
		firstErr error
	)
	for _, src := range sourceFiles {
		path := filepath.Join(dir, src.file)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			slog.Warn("source file not found, skipping", "table", src.table, "path", path)
			report.Tables = append(report.Tables, TableReport{Table: src.table, File: src.file, Skipped: true})
			continue
		}

		tr, err := l.loadTable(ctx, src.table, path)
		tr.Table = src.table
		tr.File = src.file
		if err != nil {
			tr.Err = err.Error()
		}
		report.Tables = append(report.Tables, tr)
		if err != nil {
			slog.Error("table load failed", "table", src.table, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("load %s: %w", src.table, err)
			}
			continue
		}
		slog.Info("table loaded", "table", src.table,
			"read", tr.Read, "dropped", tr.Dropped, "inserted", tr.Inserted)
	}
	return report, firstErr
}

// loadTable parses one file and inserts its rows, with a run-ledger record
// around the whole table load.
func (l *Loader) loadTable(ctx context.Context, table, path string) (TableReport, error) {
	var tr TableReport

	runID, err := l.st.BeginRun(ctx, l.batchToken, "load_"+table, path)
	if err != nil {
		return tr, err
	}

	tr, err = l.parseAndInsert(ctx, table, path)
	if err != nil {
		if cerr := l.st.CompleteRun(ctx, runID, model.RunFailed, 0, err.Error()); cerr != nil {
			slog.Error("failed to record load failure", "run_id", runID, "error", cerr)
		}
		return tr, err
	}

	note := ""
	if tr.Dropped > 0 {
		note = fmt.Sprintf("%s: dropped %d row(s)", path, tr.Dropped)
	}
	if err := l.st.CompleteRun(ctx, runID, model.RunSuccess, tr.Inserted, note); err != nil {
		return tr, err
	}
	return tr, nil
}

func (l *Loader) parseAndInsert(ctx context.Context, table, path string) (TableReport, error) {
	var tr TableReport

	records, err := readRecords(path)
	if err != nil {
		return tr, err
	}
	if len(records) == 0 {
		return tr, fmt.Errorf("%s: empty file", path)
	}

	header := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		header[snakeCase(h)] = i
	}
	if err := checkColumns(table, header); err != nil {
		return tr, fmt.Errorf("%s: %w", path, err)
	}
	data := dropExactDuplicates(records[1:], &tr)
	tr.Read = len(records) - 1

	field := func(rec []string, col string) (string, error) {
		i, ok := header[col]
		if !ok {
			return "", fmt.Errorf("%s: missing column %q", path, col)
		}
		if i >= len(rec) {
			return "", nil
		}
		return strings.TrimSpace(rec[i]), nil
	}

	switch table {
	case "ft_posting":
		rows, err := parsePostings(data, field, &tr)
		if err != nil {
			return tr, err
		}
		tr.Inserted, err = l.st.InsertPostings(ctx, rows)
		return tr, err
	case "ft_balance":
		rows, err := parseBalanceSnapshots(data, field, &tr)
		if err != nil {
			return tr, err
		}
		tr.Inserted, err = l.st.InsertBalanceSnapshots(ctx, rows)
		return tr, err
	case "md_account":
		rows, err := parseAccounts(data, field, &tr)
		if err != nil {
			return tr, err
		}
		tr.Inserted, err = l.st.InsertAccounts(ctx, rows)
		return tr, err
	case "md_currency":
		rows, err := parseCurrencies(data, field, &tr)
		if err != nil {
			return tr, err
		}
		tr.Inserted, err = l.st.InsertCurrencies(ctx, rows)
		return tr, err
	case "md_exchange_rate":
		rows, err := parseExchangeRates(data, field, &tr)
		if err != nil {
			return tr, err
		}
		tr.Inserted, err = l.st.InsertExchangeRates(ctx, rows)
		return tr, err
	case "md_ledger_account":
		rows, err := parseLedgerRefs(data, field, &tr)
		if err != nil {
			return tr, err
		}
		tr.Inserted, err = l.st.InsertLedgerRefs(ctx, rows)
		return tr, err
	default:
		return tr, fmt.Errorf("unknown table %q", table)
	}
}

// requiredColumns lists the columns each table's extract must carry.
// md_exchange_rate accepts either spelling of its rate column.
var requiredColumns = map[string][]string{
	"ft_posting":        {"oper_date", "credit_account_rk", "debet_account_rk", "credit_amount", "debet_amount"},
	"ft_balance":        {"on_date", "account_rk", "currency_rk", "balance_out"},
	"md_account":        {"data_actual_date", "data_actual_end_date", "account_rk", "account_number", "char_type", "currency_rk", "currency_code"},
	"md_currency":       {"currency_rk", "data_actual_date", "data_actual_end_date", "currency_code", "code_iso_char"},
	"md_exchange_rate":  {"data_actual_date", "data_actual_end_date", "currency_rk", "code_iso_num"},
	"md_ledger_account": {"chapter", "ledger_account", "characteristic", "start_date", "end_date"},
}

// checkColumns verifies all required columns are present in the header.
func checkColumns(table string, header map[string]int) error {
	var missing []string
	for _, col := range requiredColumns[table] {
		if _, ok := header[col]; !ok {
			missing = append(missing, col)
		}
	}
	if table == "md_exchange_rate" {
		if _, a := header["reduced_cource"]; !a {
			if _, b := header["reduced_rate"]; !b {
				missing = append(missing, "reduced_cource")
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing column(s) %v", missing)
	}
	return nil
}

// snakeCase normalizes a CSV header: trim, spaces and dashes to
// underscores, lowercase.
func snakeCase(name string) string {
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ToLower(s)
}

// dropExactDuplicates removes every copy of any row that appears more than
// once, matching the upstream cleaner's behavior.
func dropExactDuplicates(records [][]string, tr *TableReport) [][]string {
	counts := make(map[string]int, len(records))
	keys := make([]string, len(records))
	for i, rec := range records {
		k := strings.Join(rec, "\x1f")
		keys[i] = k
		counts[k]++
	}

	out := records[:0:0]
	for i, rec := range records {
		if counts[keys[i]] > 1 {
			tr.Dropped++
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Date formats the source extracts use.
const (
	layoutDotted = "02.01.2006"
	layoutDashed = "02-01-2006"
)

// parseSourceDate parses a date in the given source layout, accepting
// already-ISO values as well.
func parseSourceDate(s, layout string) (model.Date, bool) {
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "none") {
		return model.Date{}, false
	}
	if d, err := model.ParseDate(s); err == nil {
		return d, true
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return model.Date{}, false
	}
	return model.NewDate(t.Date()), true
}

// parseISODate parses a strict YYYY-MM-DD value.
func parseISODate(s string) (model.Date, bool) {
	d, err := model.ParseDate(s)
	return d, err == nil
}

// parseOptionalISODate parses a nullable YYYY-MM-DD value; empty and NaN
// map to nil (open-ended).
func parseOptionalISODate(s string) (*model.Date, bool) {
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "none") {
		return nil, true
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return nil, false
	}
	return &d, true
}

func parseInt(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

func parseAmount(s string) (decimal.Decimal, bool) {
	// Some extracts use comma decimal separators.
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	return d, err == nil
}

// trimCode truncates a code column to its schema width, mirroring the
// upstream varchar limits.
func trimCode(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

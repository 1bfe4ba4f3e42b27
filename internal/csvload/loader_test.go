package csvload

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/mzavyalov/bankdm/internal/model"
	"github.com/mzavyalov/bankdm/internal/store"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func tableReport(t *testing.T, rep Report, table string) TableReport {
	t.Helper()
	for _, tr := range rep.Tables {
		if tr.Table == table {
			return tr
		}
	}
	t.Fatalf("no report for table %q", table)
	return TableReport{}
}

func TestLoadDir_PostingsWithDashedDates(t *testing.T) {
	st := newTestStore(t)
	dir := t.TempDir()

	writeFile(t, dir, "ft_posting_f.csv",
		"OPER_DATE;CREDIT_ACCOUNT_RK;DEBET_ACCOUNT_RK;CREDIT_AMOUNT;DEBET_AMOUNT\n"+
			"09-01-2018;3;1;30;30\n"+
			"09-01-2018;1;3;10,5;10,5\n")

	rep, err := New(st).LoadDir(context.Background(), dir)
	require.NoError(t, err)

	tr := tableReport(t, rep, "ft_posting")
	assert.Equal(t, 2, tr.Read)
	assert.Equal(t, int64(2), tr.Inserted)

	ctx := context.Background()
	postings, err := st.PostingsByDate(ctx, model.MustDate("2018-01-09"))
	require.NoError(t, err)
	require.Len(t, postings, 2)
	// Comma decimal separators are normalized.
	assert.True(t, postings[0].CreditAmount.Equal(dec("10.5")), "credit = %s", postings[0].CreditAmount)
}

func TestLoadDir_BalancesWithDottedDates(t *testing.T) {
	st := newTestStore(t)
	dir := t.TempDir()

	writeFile(t, dir, "ft_balance_f.csv",
		"ON_DATE;ACCOUNT_RK;CURRENCY_RK;BALANCE_OUT\n"+
			"31.12.2017;1;10;100\n"+
			"31.12.2017;2;20;50\n"+
			"bad-date;3;10;1\n")

	rep, err := New(st).LoadDir(context.Background(), dir)
	require.NoError(t, err)

	tr := tableReport(t, rep, "ft_balance")
	assert.Equal(t, 3, tr.Read)
	assert.Equal(t, 1, tr.Dropped, "unparseable date must drop the row")
	assert.Equal(t, int64(2), tr.Inserted)

	rows, err := st.BalanceSnapshotsByDate(context.Background(), model.MustDate("2017-12-31"))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestLoadDir_DropsAllCopiesOfDuplicates(t *testing.T) {
	st := newTestStore(t)
	dir := t.TempDir()

	writeFile(t, dir, "ft_balance_f.csv",
		"ON_DATE;ACCOUNT_RK;CURRENCY_RK;BALANCE_OUT\n"+
			"31.12.2017;1;10;100\n"+
			"31.12.2017;1;10;100\n"+
			"31.12.2017;2;20;50\n")

	rep, err := New(st).LoadDir(context.Background(), dir)
	require.NoError(t, err)

	tr := tableReport(t, rep, "ft_balance")
	assert.Equal(t, 2, tr.Dropped, "both copies of a duplicate are dropped")
	assert.Equal(t, int64(1), tr.Inserted)

	rows, err := st.BalanceSnapshotsByDate(context.Background(), model.MustDate("2017-12-31"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].AccountRK)
}

func TestLoadDir_Windows1251Encoding(t *testing.T) {
	st := newTestStore(t)
	dir := t.TempDir()

	content := "CURRENCY_RK;DATA_ACTUAL_DATE;DATA_ACTUAL_END_DATE;CURRENCY_CODE;CODE_ISO_CHAR\n" +
		"10;2017-01-01;;810РУБ;RUR\n"
	encoded, err := charmap.Windows1251.NewEncoder().String(content)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "md_currency_d.csv"), []byte(encoded), 0o644))

	rep, lerr := New(st).LoadDir(context.Background(), dir)
	require.NoError(t, lerr)
	tr := tableReport(t, rep, "md_currency")
	assert.Equal(t, int64(1), tr.Inserted)

	currencies, err := st.Currencies(context.Background())
	require.NoError(t, err)
	require.Len(t, currencies, 1)
	// Codes longer than the schema width are truncated.
	assert.Equal(t, "810", currencies[0].Code)
}

func TestLoadDir_ExchangeRateColumnSpellings(t *testing.T) {
	st := newTestStore(t)

	for _, col := range []string{"REDUCED_COURCE", "REDUCED_RATE"} {
		dir := t.TempDir()
		writeFile(t, dir, "md_exchange_rate_d.csv",
			"DATA_ACTUAL_DATE;DATA_ACTUAL_END_DATE;CURRENCY_RK;"+col+";CODE_ISO_NUM\n"+
				"2017-01-01;;20;62,5;840\n")

		_, err := New(st).LoadDir(context.Background(), dir)
		require.NoError(t, err, "column spelling %s", col)
	}

	rates, err := st.ExchangeRates(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 1, "identical rows across loads collapse")
	assert.True(t, rates[0].Rate.Equal(dec("62.5")))
}

func TestLoadDir_AccountUnknownCharTypeDropped(t *testing.T) {
	st := newTestStore(t)
	dir := t.TempDir()

	writeFile(t, dir, "md_account_d.csv",
		"DATA_ACTUAL_DATE;DATA_ACTUAL_END_DATE;ACCOUNT_RK;ACCOUNT_NUMBER;CHAR_TYPE;CURRENCY_RK;CURRENCY_CODE\n"+
			"2017-01-01;;1;40702810000000000001;A;10;810\n"+
			"2017-01-01;;2;40817840000000000002;X;20;840\n")

	rep, err := New(st).LoadDir(context.Background(), dir)
	require.NoError(t, err)

	tr := tableReport(t, rep, "md_account")
	assert.Equal(t, 1, tr.Dropped)
	assert.Equal(t, int64(1), tr.Inserted)
}

func TestLoadDir_ReloadIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	dir := t.TempDir()

	writeFile(t, dir, "ft_balance_f.csv",
		"ON_DATE;ACCOUNT_RK;CURRENCY_RK;BALANCE_OUT\n"+
			"31.12.2017;1;10;100\n")

	_, err := New(st).LoadDir(context.Background(), dir)
	require.NoError(t, err)

	rep, err := New(st).LoadDir(context.Background(), dir)
	require.NoError(t, err)
	tr := tableReport(t, rep, "ft_balance")
	assert.Equal(t, int64(0), tr.Inserted, "reload must insert nothing new")
}

func TestLoadDir_MissingFilesSkipped(t *testing.T) {
	st := newTestStore(t)

	rep, err := New(st).LoadDir(context.Background(), t.TempDir())
	require.NoError(t, err, "an empty directory is not an error")
	require.Len(t, rep.Tables, len(sourceFiles))
	for _, tr := range rep.Tables {
		assert.True(t, tr.Skipped, "table %s", tr.Table)
	}
}

func TestLoadDir_MalformedFileDoesNotAbortOthers(t *testing.T) {
	st := newTestStore(t)
	dir := t.TempDir()

	writeFile(t, dir, "md_currency_d.csv", "WRONG_HEADER\n1\n")
	writeFile(t, dir, "ft_balance_f.csv",
		"ON_DATE;ACCOUNT_RK;CURRENCY_RK;BALANCE_OUT\n"+
			"31.12.2017;1;10;100\n")

	rep, err := New(st).LoadDir(context.Background(), dir)
	require.Error(t, err, "the failed table surfaces as the overall error")

	assert.NotEmpty(t, tableReport(t, rep, "md_currency").Err)
	assert.Equal(t, int64(1), tableReport(t, rep, "ft_balance").Inserted,
		"later tables still load after an earlier failure")
}

func TestLoadDir_RunLedgerPerTable(t *testing.T) {
	st := newTestStore(t)
	dir := t.TempDir()

	writeFile(t, dir, "ft_balance_f.csv",
		"ON_DATE;ACCOUNT_RK;CURRENCY_RK;BALANCE_OUT\n"+
			"31.12.2017;1;10;100\n")

	l := New(st)
	_, err := l.LoadDir(context.Background(), dir)
	require.NoError(t, err)

	runs, err := st.RunsByBatch(context.Background(), l.batchToken)
	require.NoError(t, err)
	require.Len(t, runs, 1, "skipped tables get no run record")
	assert.Equal(t, "load_ft_balance", runs[0].Stage)
	assert.Equal(t, model.RunSuccess, runs[0].Status)
	assert.Equal(t, int64(1), runs[0].RowsLoaded)
}

func TestSnakeCase(t *testing.T) {
	cases := map[string]string{
		"OPER_DATE":    "oper_date",
		" On Date ":    "on_date",
		"reduced-rate": "reduced_rate",
	}
	for in, want := range cases {
		if got := snakeCase(in); got != want {
			t.Errorf("snakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}

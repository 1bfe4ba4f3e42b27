package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mzavyalov/bankdm/internal/model"
	"github.com/mzavyalov/bankdm/internal/store"
)

// Standard fixture accounts. All effective-dated open-ended from 2017-01-01.
//
//	rk 1: active, local currency (810)
//	rk 2: passive, foreign currency (840), rate 2
//	rk 3: active, local currency (810), counterparty
//	rk 4: active, foreign currency (840), same ledger prefix as rk 1
const (
	curLocal   = int64(10)
	curForeign = int64(20)
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func setupStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	_, err = st.InsertCurrencies(ctx, []model.Currency{
		{CurrencyRK: curLocal, ActualFrom: model.MustDate("2017-01-01"), Code: "810", ISOChar: "RUR"},
		{CurrencyRK: curForeign, ActualFrom: model.MustDate("2017-01-01"), Code: "840", ISOChar: "USD"},
	})
	require.NoError(t, err)

	_, err = st.InsertExchangeRates(ctx, []model.ExchangeRate{
		{CurrencyRK: curLocal, ActualFrom: model.MustDate("2017-01-01"), Rate: dec("1"), ISONum: "810"},
		{CurrencyRK: curForeign, ActualFrom: model.MustDate("2017-01-01"), Rate: dec("2"), ISONum: "840"},
	})
	require.NoError(t, err)

	_, err = st.InsertAccounts(ctx, []model.Account{
		{AccountRK: 1, ActualFrom: model.MustDate("2017-01-01"),
			Number: "40702810000000000001", CharType: model.CharTypeActive, CurrencyRK: curLocal, CurrencyCode: "810"},
		{AccountRK: 2, ActualFrom: model.MustDate("2017-01-01"),
			Number: "40817840000000000002", CharType: model.CharTypePassive, CurrencyRK: curForeign, CurrencyCode: "840"},
		{AccountRK: 3, ActualFrom: model.MustDate("2017-01-01"),
			Number: "40702810000000000003", CharType: model.CharTypeActive, CurrencyRK: curLocal, CurrencyCode: "810"},
		{AccountRK: 4, ActualFrom: model.MustDate("2017-01-01"),
			Number: "40702840000000000004", CharType: model.CharTypeActive, CurrencyRK: curForeign, CurrencyCode: "840"},
	})
	require.NoError(t, err)

	_, err = st.InsertLedgerRefs(ctx, []model.LedgerRef{
		{LedgerAccount: "40702", Chapter: "A", StartDate: model.MustDate("2017-01-01")},
		{LedgerAccount: "40817", Chapter: "B", StartDate: model.MustDate("2017-01-01")},
	})
	require.NoError(t, err)

	return st
}

// seedPrior materializes balances for 2018-01-08 directly, so daily
// computations for 2018-01-09 have a prior day to carry from.
func seedPrior(t *testing.T, st *store.Store, balances ...model.Balance) {
	t.Helper()
	require.NoError(t, st.ReplaceBalances(context.Background(), model.MustDate("2018-01-08"), balances))
}

func balance(date string, rk int64, out, outRub string) model.Balance {
	return model.Balance{
		OnDate:        model.MustDate(date),
		AccountRK:     rk,
		BalanceOut:    dec(out),
		BalanceOutRub: dec(outRub),
	}
}

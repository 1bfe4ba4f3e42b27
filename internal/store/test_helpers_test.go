package store

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mzavyalov/bankdm/internal/model"
)

// createTestStore creates a file-backed store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal fixture %q: %v", s, err)
	}
	return d
}

func testTurnover(t *testing.T, date string, rk int64, deb, debRub, cre, creRub string) model.Turnover {
	t.Helper()
	return model.Turnover{
		OnDate:          model.MustDate(date),
		AccountRK:       rk,
		DebetAmount:     dec(t, deb),
		DebetAmountRub:  dec(t, debRub),
		CreditAmount:    dec(t, cre),
		CreditAmountRub: dec(t, creRub),
	}
}

func testBalance(t *testing.T, date string, rk int64, out, outRub string) model.Balance {
	t.Helper()
	return model.Balance{
		OnDate:        model.MustDate(date),
		AccountRK:     rk,
		BalanceOut:    dec(t, out),
		BalanceOutRub: dec(t, outRub),
	}
}

package csvload

import (
	"log/slog"

	"github.com/mzavyalov/bankdm/internal/model"
)

// fieldFn extracts a named column from a record.
type fieldFn func(rec []string, col string) (string, error)

func parsePostings(data [][]string, field fieldFn, tr *TableReport) ([]model.Posting, error) {
	var out []model.Posting
	for _, rec := range data {
		operDate, err := field(rec, "oper_date")
		if err != nil {
			return nil, err
		}
		d, ok := parseSourceDate(operDate, layoutDashed)
		if !ok {
			tr.Dropped++
			continue
		}

		var p model.Posting
		p.OperDate = d
		if p.CreditAccountRK, ok = intField(rec, field, "credit_account_rk", tr); !ok {
			continue
		}
		if p.DebetAccountRK, ok = intField(rec, field, "debet_account_rk", tr); !ok {
			continue
		}
		credit, err := field(rec, "credit_amount")
		if err != nil {
			return nil, err
		}
		if p.CreditAmount, ok = parseAmount(credit); !ok {
			tr.Dropped++
			continue
		}
		debet, err := field(rec, "debet_amount")
		if err != nil {
			return nil, err
		}
		if p.DebetAmount, ok = parseAmount(debet); !ok {
			tr.Dropped++
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func parseBalanceSnapshots(data [][]string, field fieldFn, tr *TableReport) ([]model.BalanceSnapshot, error) {
	var out []model.BalanceSnapshot
	for _, rec := range data {
		onDate, err := field(rec, "on_date")
		if err != nil {
			return nil, err
		}
		d, ok := parseSourceDate(onDate, layoutDotted)
		if !ok {
			tr.Dropped++
			continue
		}

		var b model.BalanceSnapshot
		b.OnDate = d
		if b.AccountRK, ok = intField(rec, field, "account_rk", tr); !ok {
			continue
		}
		if b.CurrencyRK, ok = intField(rec, field, "currency_rk", tr); !ok {
			continue
		}
		amount, err := field(rec, "balance_out")
		if err != nil {
			return nil, err
		}
		if b.BalanceOut, ok = parseAmount(amount); !ok {
			tr.Dropped++
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func parseAccounts(data [][]string, field fieldFn, tr *TableReport) ([]model.Account, error) {
	var out []model.Account
	for _, rec := range data {
		from, err := field(rec, "data_actual_date")
		if err != nil {
			return nil, err
		}
		start, ok := parseISODate(from)
		if !ok {
			tr.Dropped++
			continue
		}
		endRaw, err := field(rec, "data_actual_end_date")
		if err != nil {
			return nil, err
		}
		end, ok := parseOptionalISODate(endRaw)
		if !ok {
			tr.Dropped++
			continue
		}

		a := model.Account{ActualFrom: start, ActualTo: end}
		if a.AccountRK, ok = intField(rec, field, "account_rk", tr); !ok {
			continue
		}
		if a.Number, err = field(rec, "account_number"); err != nil {
			return nil, err
		}
		if a.CharType, err = field(rec, "char_type"); err != nil {
			return nil, err
		}
		if a.CharType != model.CharTypeActive && a.CharType != model.CharTypePassive {
			slog.Warn("account with unknown char_type dropped",
				"account_rk", a.AccountRK, "char_type", a.CharType)
			tr.Dropped++
			continue
		}
		if a.CurrencyRK, ok = intField(rec, field, "currency_rk", tr); !ok {
			continue
		}
		if a.CurrencyCode, err = field(rec, "currency_code"); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func parseCurrencies(data [][]string, field fieldFn, tr *TableReport) ([]model.Currency, error) {
	var out []model.Currency
	for _, rec := range data {
		from, err := field(rec, "data_actual_date")
		if err != nil {
			return nil, err
		}
		start, ok := parseISODate(from)
		if !ok {
			tr.Dropped++
			continue
		}
		endRaw, err := field(rec, "data_actual_end_date")
		if err != nil {
			return nil, err
		}
		end, ok := parseOptionalISODate(endRaw)
		if !ok {
			tr.Dropped++
			continue
		}

		c := model.Currency{ActualFrom: start, ActualTo: end}
		if c.CurrencyRK, ok = intField(rec, field, "currency_rk", tr); !ok {
			continue
		}
		code, err := field(rec, "currency_code")
		if err != nil {
			return nil, err
		}
		isoChar, err := field(rec, "code_iso_char")
		if err != nil {
			return nil, err
		}
		c.Code = trimCode(code, 3)
		c.ISOChar = trimCode(isoChar, 3)
		out = append(out, c)
	}
	return out, nil
}

func parseExchangeRates(data [][]string, field fieldFn, tr *TableReport) ([]model.ExchangeRate, error) {
	var out []model.ExchangeRate
	for _, rec := range data {
		from, err := field(rec, "data_actual_date")
		if err != nil {
			return nil, err
		}
		start, ok := parseISODate(from)
		if !ok {
			tr.Dropped++
			continue
		}
		endRaw, err := field(rec, "data_actual_end_date")
		if err != nil {
			return nil, err
		}
		end, ok := parseOptionalISODate(endRaw)
		if !ok {
			tr.Dropped++
			continue
		}

		r := model.ExchangeRate{ActualFrom: start, ActualTo: end}
		if r.CurrencyRK, ok = intField(rec, field, "currency_rk", tr); !ok {
			continue
		}
		rate, err := field(rec, "reduced_cource")
		if err != nil {
			// Some extracts already carry the corrected column name.
			rate, err = field(rec, "reduced_rate")
			if err != nil {
				return nil, err
			}
		}
		if r.Rate, ok = parseAmount(rate); !ok {
			tr.Dropped++
			continue
		}
		if r.ISONum, err = field(rec, "code_iso_num"); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func parseLedgerRefs(data [][]string, field fieldFn, tr *TableReport) ([]model.LedgerRef, error) {
	var out []model.LedgerRef
	for _, rec := range data {
		startRaw, err := field(rec, "start_date")
		if err != nil {
			return nil, err
		}
		start, ok := parseISODate(startRaw)
		if !ok {
			tr.Dropped++
			continue
		}
		endRaw, err := field(rec, "end_date")
		if err != nil {
			return nil, err
		}
		end, ok := parseOptionalISODate(endRaw)
		if !ok {
			tr.Dropped++
			continue
		}

		l := model.LedgerRef{StartDate: start, EndDate: end}
		strCols := []struct {
			col string
			dst *string
		}{
			{"chapter", &l.Chapter},
			{"chapter_name", &l.ChapterName},
			{"section_number", &l.SectionNumber},
			{"section_name", &l.SectionName},
			{"subsection_name", &l.SubsectionName},
			{"ledger1_account", &l.Ledger1Account},
			{"ledger1_account_name", &l.Ledger1AccountName},
			{"ledger_account", &l.LedgerAccount},
			{"ledger_account_name", &l.LedgerAccountName},
			{"characteristic", &l.Characteristic},
		}
		for _, c := range strCols {
			if *c.dst, err = field(rec, c.col); err != nil {
				return nil, err
			}
		}
		if l.LedgerAccount == "" {
			tr.Dropped++
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// intField extracts and parses an integer column, counting parse failures
// as dropped rows.
func intField(rec []string, field fieldFn, col string, tr *TableReport) (int64, bool) {
	s, err := field(rec, col)
	if err != nil {
		return 0, false
	}
	n, ok := parseInt(s)
	if !ok {
		tr.Dropped++
		return 0, false
	}
	return n, true
}

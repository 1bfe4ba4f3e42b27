package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mzavyalov/bankdm/internal/model"
)

// Accounts returns every effective-dated account version, ordered by
// (account_rk, data_actual_date) for deterministic iteration.
func (s *Store) Accounts(ctx context.Context) ([]model.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data_actual_date, data_actual_end_date, account_rk, account_number,
		       char_type, currency_rk, currency_code
		FROM md_account
		ORDER BY account_rk ASC, data_actual_date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		var (
			a       model.Account
			from    string
			endDate sql.NullString
		)
		if err := rows.Scan(&from, &endDate, &a.AccountRK, &a.Number, &a.CharType, &a.CurrencyRK, &a.CurrencyCode); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if a.ActualFrom, err = parseDate(from); err != nil {
			return nil, fmt.Errorf("account %d: %w", a.AccountRK, err)
		}
		if a.ActualTo, err = scanNullDate(endDate); err != nil {
			return nil, fmt.Errorf("account %d: %w", a.AccountRK, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return out, nil
}

// Currencies returns every effective-dated currency version.
func (s *Store) Currencies(ctx context.Context) ([]model.Currency, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT currency_rk, data_actual_date, data_actual_end_date, currency_code, code_iso_char
		FROM md_currency
		ORDER BY currency_rk ASC, data_actual_date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query currencies: %w", err)
	}
	defer rows.Close()

	var out []model.Currency
	for rows.Next() {
		var (
			c        model.Currency
			from     string
			endDate  sql.NullString
			code     sql.NullString
			isoChar  sql.NullString
		)
		if err := rows.Scan(&c.CurrencyRK, &from, &endDate, &code, &isoChar); err != nil {
			return nil, fmt.Errorf("scan currency: %w", err)
		}
		c.Code = code.String
		c.ISOChar = isoChar.String
		if c.ActualFrom, err = parseDate(from); err != nil {
			return nil, fmt.Errorf("currency %d: %w", c.CurrencyRK, err)
		}
		if c.ActualTo, err = scanNullDate(endDate); err != nil {
			return nil, fmt.Errorf("currency %d: %w", c.CurrencyRK, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate currencies: %w", err)
	}
	return out, nil
}

// ExchangeRates returns every rate version, ordered by (currency_rk,
// data_actual_date). Overlapping intervals per currency are allowed here;
// the resolver applies the latest-start-wins rule.
func (s *Store) ExchangeRates(ctx context.Context) ([]model.ExchangeRate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data_actual_date, data_actual_end_date, currency_rk, reduced_rate, code_iso_num
		FROM md_exchange_rate
		ORDER BY currency_rk ASC, data_actual_date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query exchange rates: %w", err)
	}
	defer rows.Close()

	var out []model.ExchangeRate
	for rows.Next() {
		var (
			r       model.ExchangeRate
			from    string
			endDate sql.NullString
			rate    string
			isoNum  sql.NullString
		)
		if err := rows.Scan(&from, &endDate, &r.CurrencyRK, &rate, &isoNum); err != nil {
			return nil, fmt.Errorf("scan exchange rate: %w", err)
		}
		r.ISONum = isoNum.String
		if r.ActualFrom, err = parseDate(from); err != nil {
			return nil, fmt.Errorf("rate for currency %d: %w", r.CurrencyRK, err)
		}
		if r.ActualTo, err = scanNullDate(endDate); err != nil {
			return nil, fmt.Errorf("rate for currency %d: %w", r.CurrencyRK, err)
		}
		if r.Rate, err = parseDecimal(rate); err != nil {
			return nil, fmt.Errorf("rate for currency %d: %w", r.CurrencyRK, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchange rates: %w", err)
	}
	return out, nil
}

// LedgerRefs returns every version of the regulatory chart reference,
// ordered by (ledger_account, start_date).
func (s *Store) LedgerRefs(ctx context.Context) ([]model.LedgerRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chapter, chapter_name, section_number, section_name, subsection_name,
		       ledger1_account, ledger1_account_name, ledger_account, ledger_account_name,
		       characteristic, start_date, end_date
		FROM md_ledger_account
		ORDER BY ledger_account ASC, start_date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query ledger refs: %w", err)
	}
	defer rows.Close()

	var out []model.LedgerRef
	for rows.Next() {
		var (
			l       model.LedgerRef
			cols    [9]sql.NullString
			chr     sql.NullString
			start   string
			endDate sql.NullString
		)
		if err := rows.Scan(&cols[0], &cols[1], &cols[2], &cols[3], &cols[4],
			&cols[5], &cols[6], &cols[7], &cols[8], &chr, &start, &endDate); err != nil {
			return nil, fmt.Errorf("scan ledger ref: %w", err)
		}
		l.Characteristic = chr.String
		l.Chapter = cols[0].String
		l.ChapterName = cols[1].String
		l.SectionNumber = cols[2].String
		l.SectionName = cols[3].String
		l.SubsectionName = cols[4].String
		l.Ledger1Account = cols[5].String
		l.Ledger1AccountName = cols[6].String
		l.LedgerAccount = cols[7].String
		l.LedgerAccountName = cols[8].String
		if l.StartDate, err = parseDate(start); err != nil {
			return nil, fmt.Errorf("ledger ref %s: %w", l.LedgerAccount, err)
		}
		if l.EndDate, err = scanNullDate(endDate); err != nil {
			return nil, fmt.Errorf("ledger ref %s: %w", l.LedgerAccount, err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger refs: %w", err)
	}
	return out, nil
}

// InsertAccounts bulk-inserts account versions.
// Uses INSERT OR IGNORE so repeated loads of the same extract are idempotent.
func (s *Store) InsertAccounts(ctx context.Context, accounts []model.Account) (int64, error) {
	var total int64
	err := s.replace(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO md_account
			(data_actual_date, data_actual_end_date, account_rk, account_number, char_type, currency_rk, currency_code)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare account insert: %w", err)
		}
		defer stmt.Close()

		for _, a := range accounts {
			res, err := stmt.ExecContext(ctx,
				a.ActualFrom.String(), nullDateArg(a.ActualTo),
				a.AccountRK, a.Number, a.CharType, a.CurrencyRK, a.CurrencyCode)
			if err != nil {
				return fmt.Errorf("insert account %d: %w", a.AccountRK, err)
			}
			n, _ := res.RowsAffected()
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// InsertCurrencies bulk-inserts currency versions. INSERT OR IGNORE.
func (s *Store) InsertCurrencies(ctx context.Context, currencies []model.Currency) (int64, error) {
	var total int64
	err := s.replace(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO md_currency
			(currency_rk, data_actual_date, data_actual_end_date, currency_code, code_iso_char)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare currency insert: %w", err)
		}
		defer stmt.Close()

		for _, c := range currencies {
			res, err := stmt.ExecContext(ctx,
				c.CurrencyRK, c.ActualFrom.String(), nullDateArg(c.ActualTo), c.Code, c.ISOChar)
			if err != nil {
				return fmt.Errorf("insert currency %d: %w", c.CurrencyRK, err)
			}
			n, _ := res.RowsAffected()
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// InsertExchangeRates bulk-inserts rate versions. INSERT OR IGNORE.
func (s *Store) InsertExchangeRates(ctx context.Context, rates []model.ExchangeRate) (int64, error) {
	var total int64
	err := s.replace(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO md_exchange_rate
			(data_actual_date, data_actual_end_date, currency_rk, reduced_rate, code_iso_num)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare rate insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range rates {
			res, err := stmt.ExecContext(ctx,
				r.ActualFrom.String(), nullDateArg(r.ActualTo), r.CurrencyRK, r.Rate.String(), r.ISONum)
			if err != nil {
				return fmt.Errorf("insert rate for currency %d: %w", r.CurrencyRK, err)
			}
			n, _ := res.RowsAffected()
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// InsertLedgerRefs bulk-inserts chart reference versions. INSERT OR IGNORE.
func (s *Store) InsertLedgerRefs(ctx context.Context, refs []model.LedgerRef) (int64, error) {
	var total int64
	err := s.replace(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO md_ledger_account
			(chapter, chapter_name, section_number, section_name, subsection_name,
			 ledger1_account, ledger1_account_name, ledger_account, ledger_account_name,
			 characteristic, start_date, end_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare ledger ref insert: %w", err)
		}
		defer stmt.Close()

		for _, l := range refs {
			res, err := stmt.ExecContext(ctx,
				l.Chapter, l.ChapterName, l.SectionNumber, l.SectionName, l.SubsectionName,
				l.Ledger1Account, l.Ledger1AccountName, l.LedgerAccount, l.LedgerAccountName,
				l.Characteristic, l.StartDate.String(), nullDateArg(l.EndDate))
			if err != nil {
				return fmt.Errorf("insert ledger ref %s: %w", l.LedgerAccount, err)
			}
			n, _ := res.RowsAffected()
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

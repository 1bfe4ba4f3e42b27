package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mzavyalov/bankdm/internal/model"
)

// ReplaceTurnovers rewrites the turnover mart for one date: delete every
// existing row for the date, then insert the computed set, as one
// transaction. Re-invocation for the same date is idempotent.
func (s *Store) ReplaceTurnovers(ctx context.Context, d model.Date, turnovers []model.Turnover) error {
	return s.replace(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM dm_account_turnover WHERE on_date = ?`, d.String()); err != nil {
			return fmt.Errorf("delete turnovers for %s: %w", d, err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO dm_account_turnover
			(on_date, account_rk, debet_amount, debet_amount_rub, credit_amount, credit_amount_rub)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare turnover insert: %w", err)
		}
		defer stmt.Close()

		for _, t := range turnovers {
			if _, err := stmt.ExecContext(ctx,
				t.OnDate.String(), t.AccountRK,
				t.DebetAmount.String(), t.DebetAmountRub.String(),
				t.CreditAmount.String(), t.CreditAmountRub.String()); err != nil {
				return fmt.Errorf("insert turnover for account %d: %w", t.AccountRK, err)
			}
		}
		return nil
	})
}

// TurnoversByDate returns the turnover rows for one date keyed by account.
func (s *Store) TurnoversByDate(ctx context.Context, d model.Date) (map[int64]model.Turnover, error) {
	rows, err := s.queryTurnovers(ctx, `WHERE on_date = ?`, d.String())
	if err != nil {
		return nil, err
	}
	out := make(map[int64]model.Turnover, len(rows))
	for _, t := range rows {
		out[t.AccountRK] = t
	}
	return out, nil
}

// TurnoversInRange returns all turnover rows with on_date in [from, to],
// ordered by (on_date, account_rk).
func (s *Store) TurnoversInRange(ctx context.Context, from, to model.Date) ([]model.Turnover, error) {
	return s.queryTurnovers(ctx, `WHERE on_date >= ? AND on_date <= ?`, from.String(), to.String())
}

func (s *Store) queryTurnovers(ctx context.Context, where string, args ...any) ([]model.Turnover, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT on_date, account_rk, debet_amount, debet_amount_rub, credit_amount, credit_amount_rub
		FROM dm_account_turnover `+where+`
		ORDER BY on_date ASC, account_rk ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query turnovers: %w", err)
	}
	defer rows.Close()

	var out []model.Turnover
	for rows.Next() {
		var (
			t      model.Turnover
			onDate string
			cols   [4]string
		)
		if err := rows.Scan(&onDate, &t.AccountRK, &cols[0], &cols[1], &cols[2], &cols[3]); err != nil {
			return nil, fmt.Errorf("scan turnover: %w", err)
		}
		if t.OnDate, err = parseDate(onDate); err != nil {
			return nil, fmt.Errorf("turnover %d: %w", t.AccountRK, err)
		}
		if t.DebetAmount, err = parseDecimal(cols[0]); err != nil {
			return nil, fmt.Errorf("turnover %d: %w", t.AccountRK, err)
		}
		if t.DebetAmountRub, err = parseDecimal(cols[1]); err != nil {
			return nil, fmt.Errorf("turnover %d: %w", t.AccountRK, err)
		}
		if t.CreditAmount, err = parseDecimal(cols[2]); err != nil {
			return nil, fmt.Errorf("turnover %d: %w", t.AccountRK, err)
		}
		if t.CreditAmountRub, err = parseDecimal(cols[3]); err != nil {
			return nil, fmt.Errorf("turnover %d: %w", t.AccountRK, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turnovers: %w", err)
	}
	return out, nil
}

// ReplaceBalances rewrites the balance mart for one date as one
// delete-then-insert transaction.
func (s *Store) ReplaceBalances(ctx context.Context, d model.Date, balances []model.Balance) error {
	return s.replace(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM dm_account_balance WHERE on_date = ?`, d.String()); err != nil {
			return fmt.Errorf("delete balances for %s: %w", d, err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO dm_account_balance
			(on_date, account_rk, balance_out, balance_out_rub)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare balance insert: %w", err)
		}
		defer stmt.Close()

		for _, b := range balances {
			if _, err := stmt.ExecContext(ctx,
				b.OnDate.String(), b.AccountRK,
				b.BalanceOut.String(), b.BalanceOutRub.String()); err != nil {
				return fmt.Errorf("insert balance for account %d: %w", b.AccountRK, err)
			}
		}
		return nil
	})
}

// BalancesByDate returns the balance rows for one date keyed by account.
func (s *Store) BalancesByDate(ctx context.Context, d model.Date) (map[int64]model.Balance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT on_date, account_rk, balance_out, balance_out_rub
		FROM dm_account_balance
		WHERE on_date = ?
		ORDER BY account_rk ASC
	`, d.String())
	if err != nil {
		return nil, fmt.Errorf("query balances: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]model.Balance)
	for rows.Next() {
		var (
			b      model.Balance
			onDate string
			native string
			rub    string
		)
		if err := rows.Scan(&onDate, &b.AccountRK, &native, &rub); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		if b.OnDate, err = parseDate(onDate); err != nil {
			return nil, fmt.Errorf("balance %d: %w", b.AccountRK, err)
		}
		if b.BalanceOut, err = parseDecimal(native); err != nil {
			return nil, fmt.Errorf("balance %d: %w", b.AccountRK, err)
		}
		if b.BalanceOutRub, err = parseDecimal(rub); err != nil {
			return nil, fmt.Errorf("balance %d: %w", b.AccountRK, err)
		}
		out[b.AccountRK] = b
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balances: %w", err)
	}
	return out, nil
}

// CountBalances returns the number of balance rows for a date.
// The balance engine uses this for its prior-day presence check.
func (s *Store) CountBalances(ctx context.Context, d model.Date) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM dm_account_balance WHERE on_date = ?`, d.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count balances: %w", err)
	}
	return count, nil
}

// ReplaceF101 rewrites the regulatory summary for one reporting period as
// one delete-then-insert transaction, keyed by (from_date, to_date).
func (s *Store) ReplaceF101(ctx context.Context, from, to model.Date, rows []model.F101Row) error {
	return s.replace(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM dm_f101 WHERE from_date = ? AND to_date = ?`,
			from.String(), to.String()); err != nil {
			return fmt.Errorf("delete f101 for %s..%s: %w", from, to, err)
		}
		if err := insertF101Rows(ctx, tx, "dm_f101", rows); err != nil {
			return err
		}
		return nil
	})
}

// F101ByToDate returns the summary rows with the given to_date, ordered by
// (ledger_account, characteristic) as the export contract requires.
func (s *Store) F101ByToDate(ctx context.Context, to model.Date) ([]model.F101Row, error) {
	return s.queryF101(ctx, "dm_f101", to)
}

// F101V2ByToDate reads re-imported rows from the dm_f101_v2 copy.
func (s *Store) F101V2ByToDate(ctx context.Context, to model.Date) ([]model.F101Row, error) {
	return s.queryF101(ctx, "dm_f101_v2", to)
}

// ReplaceF101V2 truncates dm_f101_v2 and loads the given rows, as one
// transaction. Used by CSV re-import.
func (s *Store) ReplaceF101V2(ctx context.Context, rows []model.F101Row) error {
	return s.replace(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM dm_f101_v2`); err != nil {
			return fmt.Errorf("truncate dm_f101_v2: %w", err)
		}
		return insertF101Rows(ctx, tx, "dm_f101_v2", rows)
	})
}

func insertF101Rows(ctx context.Context, tx *sql.Tx, table string, rows []model.F101Row) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO `+table+`
		(from_date, to_date, chapter, ledger_account, characteristic,
		 balance_in_rub, balance_in_val, balance_in_total,
		 turn_deb_rub, turn_deb_val, turn_deb_total,
		 turn_cre_rub, turn_cre_val, turn_cre_total,
		 balance_out_rub, balance_out_val, balance_out_total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare f101 insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx,
			r.FromDate.String(), r.ToDate.String(), r.Chapter, r.LedgerAccount, r.Characteristic,
			r.BalanceInRub.String(), r.BalanceInVal.String(), r.BalanceInTotal.String(),
			r.TurnDebRub.String(), r.TurnDebVal.String(), r.TurnDebTotal.String(),
			r.TurnCreRub.String(), r.TurnCreVal.String(), r.TurnCreTotal.String(),
			r.BalanceOutRub.String(), r.BalanceOutVal.String(), r.BalanceOutTotal.String()); err != nil {
			return fmt.Errorf("insert f101 row %s/%s: %w", r.LedgerAccount, r.Characteristic, err)
		}
	}
	return nil
}

func (s *Store) queryF101(ctx context.Context, table string, to model.Date) ([]model.F101Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT from_date, to_date, chapter, ledger_account, characteristic,
		       balance_in_rub, balance_in_val, balance_in_total,
		       turn_deb_rub, turn_deb_val, turn_deb_total,
		       turn_cre_rub, turn_cre_val, turn_cre_total,
		       balance_out_rub, balance_out_val, balance_out_total
		FROM `+table+`
		WHERE to_date = ?
		ORDER BY ledger_account ASC, characteristic ASC
	`, to.String())
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []model.F101Row
	for rows.Next() {
		var (
			r        model.F101Row
			from, td string
			chapter  sql.NullString
			amounts  [12]string
		)
		dests := []any{&from, &td, &chapter, &r.LedgerAccount, &r.Characteristic}
		for i := range amounts {
			dests = append(dests, &amounts[i])
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		r.Chapter = chapter.String
		if r.FromDate, err = parseDate(from); err != nil {
			return nil, fmt.Errorf("%s row %s: %w", table, r.LedgerAccount, err)
		}
		if r.ToDate, err = parseDate(td); err != nil {
			return nil, fmt.Errorf("%s row %s: %w", table, r.LedgerAccount, err)
		}
		decFields := []*decimal.Decimal{
			&r.BalanceInRub, &r.BalanceInVal, &r.BalanceInTotal,
			&r.TurnDebRub, &r.TurnDebVal, &r.TurnDebTotal,
			&r.TurnCreRub, &r.TurnCreVal, &r.TurnCreTotal,
			&r.BalanceOutRub, &r.BalanceOutVal, &r.BalanceOutTotal,
		}
		for i, dst := range decFields {
			if *dst, err = parseDecimal(amounts[i]); err != nil {
				return nil, fmt.Errorf("%s row %s: %w", table, r.LedgerAccount, err)
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return out, nil
}

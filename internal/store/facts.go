package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mzavyalov/bankdm/internal/model"
)

// PostingsByDate returns all postings with the given operation date,
// in deterministic order.
func (s *Store) PostingsByDate(ctx context.Context, d model.Date) ([]model.Posting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT oper_date, credit_account_rk, debet_account_rk, credit_amount, debet_amount
		FROM ft_posting
		WHERE oper_date = ?
		ORDER BY credit_account_rk ASC, debet_account_rk ASC, credit_amount ASC, debet_amount ASC
	`, d.String())
	if err != nil {
		return nil, fmt.Errorf("query postings: %w", err)
	}
	defer rows.Close()

	var out []model.Posting
	for rows.Next() {
		var (
			p              model.Posting
			operDate       string
			credit, debet  string
		)
		if err := rows.Scan(&operDate, &p.CreditAccountRK, &p.DebetAccountRK, &credit, &debet); err != nil {
			return nil, fmt.Errorf("scan posting: %w", err)
		}
		if p.OperDate, err = parseDate(operDate); err != nil {
			return nil, fmt.Errorf("posting: %w", err)
		}
		if p.CreditAmount, err = parseDecimal(credit); err != nil {
			return nil, fmt.Errorf("posting credit amount: %w", err)
		}
		if p.DebetAmount, err = parseDecimal(debet); err != nil {
			return nil, fmt.Errorf("posting debet amount: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate postings: %w", err)
	}
	return out, nil
}

// InsertPostings bulk-inserts posting facts. INSERT OR IGNORE drops exact
// duplicates, mirroring the dedup guarantee of the CSV loader.
func (s *Store) InsertPostings(ctx context.Context, postings []model.Posting) (int64, error) {
	var total int64
	err := s.replace(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO ft_posting
			(oper_date, credit_account_rk, debet_account_rk, credit_amount, debet_amount)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare posting insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range postings {
			res, err := stmt.ExecContext(ctx,
				p.OperDate.String(), p.CreditAccountRK, p.DebetAccountRK,
				p.CreditAmount.String(), p.DebetAmount.String())
			if err != nil {
				return fmt.Errorf("insert posting: %w", err)
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

// BalanceSnapshotsByDate returns the opening-balance snapshot rows for a
// date. Used only by the balance seed operation.
func (s *Store) BalanceSnapshotsByDate(ctx context.Context, d model.Date) ([]model.BalanceSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT on_date, account_rk, currency_rk, balance_out
		FROM ft_balance
		WHERE on_date = ?
		ORDER BY account_rk ASC
	`, d.String())
	if err != nil {
		return nil, fmt.Errorf("query balance snapshots: %w", err)
	}
	defer rows.Close()

	var out []model.BalanceSnapshot
	for rows.Next() {
		var (
			b      model.BalanceSnapshot
			onDate string
			amount string
		)
		if err := rows.Scan(&onDate, &b.AccountRK, &b.CurrencyRK, &amount); err != nil {
			return nil, fmt.Errorf("scan balance snapshot: %w", err)
		}
		if b.OnDate, err = parseDate(onDate); err != nil {
			return nil, fmt.Errorf("balance snapshot %d: %w", b.AccountRK, err)
		}
		if b.BalanceOut, err = parseDecimal(amount); err != nil {
			return nil, fmt.Errorf("balance snapshot %d: %w", b.AccountRK, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balance snapshots: %w", err)
	}
	return out, nil
}

// InsertBalanceSnapshots bulk-inserts opening-balance snapshot rows.
// INSERT OR IGNORE.
func (s *Store) InsertBalanceSnapshots(ctx context.Context, snapshots []model.BalanceSnapshot) (int64, error) {
	var total int64
	err := s.replace(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO ft_balance
			(on_date, account_rk, currency_rk, balance_out)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare balance snapshot insert: %w", err)
		}
		defer stmt.Close()

		for _, b := range snapshots {
			res, err := stmt.ExecContext(ctx,
				b.OnDate.String(), b.AccountRK, b.CurrencyRK, b.BalanceOut.String())
			if err != nil {
				return fmt.Errorf("insert balance snapshot %d: %w", b.AccountRK, err)
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

package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mzavyalov/bankdm/internal/model"
)

// ComputeBalance derives each active account's closing balance for one date
// from the prior date's closing balance and that date's turnover, and
// rewrites the balance mart for the date.
//
// Nature determines the sign convention:
//
//	active  (A): out = prior + debet - credit
//	passive (P): out = prior - debet + credit
//
// applied identically to the native and reporting-currency columns.
//
// Correctness requires balances for d-1 to be fully materialized first.
// The engine enforces this: if d-1 has no balance rows at all, it fails
// with a NO_PRIOR_BALANCES CalcError instead of silently producing wrong
// carry-forwards. An individual account absent on d-1 is simply newly
// opened and starts from zero.
func (e *Engine) ComputeBalance(ctx context.Context, d model.Date) (int64, error) {
	return e.runStage(ctx, StageBalance, d.String(), func() (int64, string, error) {
		prevDate := d.Prev()
		priorCount, err := e.store.CountBalances(ctx, prevDate)
		if err != nil {
			return 0, "", fmt.Errorf("balance %s: %w", d, err)
		}
		if priorCount == 0 {
			return 0, "", newCalcError(ErrCodeNoPriorBalances, StageBalance, d,
				fmt.Sprintf("no balances materialized for %s; run the prior date or seed first", prevDate), nil)
		}

		snap, err := e.snapshot(ctx)
		if err != nil {
			return 0, "", fmt.Errorf("balance %s: %w", d, err)
		}
		prior, err := e.store.BalancesByDate(ctx, prevDate)
		if err != nil {
			return 0, "", fmt.Errorf("balance %s: %w", d, err)
		}
		turnovers, err := e.store.TurnoversByDate(ctx, d)
		if err != nil {
			return 0, "", fmt.Errorf("balance %s: %w", d, err)
		}

		zero := decimal.Zero
		var rows []model.Balance
		for _, acct := range snap.ActiveAccounts(d) {
			priorOut, priorOutRub := zero, zero
			if p, ok := prior[acct.AccountRK]; ok {
				priorOut, priorOutRub = p.BalanceOut, p.BalanceOutRub
			}

			debet, debetRub, credit, creditRub := zero, zero, zero, zero
			if t, ok := turnovers[acct.AccountRK]; ok {
				debet, debetRub = t.DebetAmount, t.DebetAmountRub
				credit, creditRub = t.CreditAmount, t.CreditAmountRub
			}

			var out, outRub decimal.Decimal
			switch acct.CharType {
			case model.CharTypeActive:
				out = priorOut.Add(debet).Sub(credit)
				outRub = priorOutRub.Add(debetRub).Sub(creditRub)
			case model.CharTypePassive:
				out = priorOut.Sub(debet).Add(credit)
				outRub = priorOutRub.Sub(debetRub).Add(creditRub)
			default:
				return 0, "", fmt.Errorf("balance %s: account %d has unknown char_type %q",
					d, acct.AccountRK, acct.CharType)
			}

			rows = append(rows, model.Balance{
				OnDate:        d,
				AccountRK:     acct.AccountRK,
				BalanceOut:    out,
				BalanceOutRub: outRub,
			})
		}

		if err := e.store.ReplaceBalances(ctx, d, rows); err != nil {
			return 0, "", newCalcError(ErrCodeReplaceFailed, StageBalance, d, "replace balances", err)
		}

		slog.Info("balance computed", "date", d.String(), "rows", len(rows))
		return int64(len(rows)), "", nil
	})
}

// SeedBalances bootstraps the balance mart from the opening-balance
// snapshot for one date, converting native amounts to reporting currency.
// Every subsequent daily ComputeBalance carries forward from here.
func (e *Engine) SeedBalances(ctx context.Context, d model.Date) (int64, error) {
	return e.runStage(ctx, StageSeed, d.String(), func() (int64, string, error) {
		snap, err := e.snapshot(ctx)
		if err != nil {
			return 0, "", fmt.Errorf("seed %s: %w", d, err)
		}

		snapshots, err := e.store.BalanceSnapshotsByDate(ctx, d)
		if err != nil {
			return 0, "", fmt.Errorf("seed %s: %w", d, err)
		}
		if len(snapshots) == 0 {
			return 0, "", newCalcError(ErrCodeNoSnapshot, StageSeed, d, "no opening-balance snapshot rows", nil)
		}

		var rows []model.Balance
		for _, b := range snapshots {
			rate, fellBack := snap.RateOrIdentity(b.CurrencyRK, d)
			if fellBack {
				slog.Warn("no exchange rate resolved for seed, using identity rate",
					"currency_rk", b.CurrencyRK, "date", d.String())
			}
			rows = append(rows, model.Balance{
				OnDate:        d,
				AccountRK:     b.AccountRK,
				BalanceOut:    b.BalanceOut,
				BalanceOutRub: b.BalanceOut.Mul(rate),
			})
		}

		if err := e.store.ReplaceBalances(ctx, d, rows); err != nil {
			return 0, "", newCalcError(ErrCodeReplaceFailed, StageSeed, d, "replace balances", err)
		}

		slog.Info("balances seeded", "date", d.String(), "rows", len(rows))
		return int64(len(rows)), "", nil
	})
}

// CalcRange is the driver fold over an inclusive date range: for each date
// ascending, turnover first, then balance. Stops at the first failure; the
// facts committed for earlier dates stay intact.
func (e *Engine) CalcRange(ctx context.Context, from, to model.Date) error {
	if from.After(to) {
		return fmt.Errorf("calc range: from %s is after to %s", from, to)
	}
	for _, d := range model.DatesBetween(from, to) {
		if _, err := e.ComputeTurnover(ctx, d); err != nil {
			return fmt.Errorf("calc range at %s: %w", d, err)
		}
		if _, err := e.ComputeBalance(ctx, d); err != nil {
			return fmt.Errorf("calc range at %s: %w", d, err)
		}
	}
	return nil
}

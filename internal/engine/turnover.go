package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mzavyalov/bankdm/internal/model"
)

// ComputeTurnover summarizes all postings of one date into per-account
// debit/credit totals in native and reporting currency, and rewrites the
// turnover mart for that date.
//
// Each posting contributes two legs: a debit leg against its debit account
// and a credit leg against its credit account. An account whose dimension
// has no version covering the date is excluded from output - a resolution
// gap, not a fatal error. A missing exchange rate falls back to the
// identity rate.
//
// Returns the number of mart rows written.
func (e *Engine) ComputeTurnover(ctx context.Context, d model.Date) (int64, error) {
	return e.runStage(ctx, StageTurnover, d.String(), func() (int64, string, error) {
		snap, err := e.snapshot(ctx)
		if err != nil {
			return 0, "", fmt.Errorf("turnover %s: %w", d, err)
		}

		postings, err := e.store.PostingsByDate(ctx, d)
		if err != nil {
			return 0, "", fmt.Errorf("turnover %s: %w", d, err)
		}

		type sums struct {
			debet  decimal.Decimal
			credit decimal.Decimal
		}
		byAccount := make(map[int64]*sums)
		var order []int64
		get := func(rk int64) *sums {
			s, ok := byAccount[rk]
			if !ok {
				s = &sums{}
				byAccount[rk] = s
				order = append(order, rk)
			}
			return s
		}

		// Explode each posting into its two legs and sum independently.
		// An account may appear on both sides within the same date.
		for _, p := range postings {
			get(p.DebetAccountRK).debet = get(p.DebetAccountRK).debet.Add(p.DebetAmount)
			get(p.CreditAccountRK).credit = get(p.CreditAccountRK).credit.Add(p.CreditAmount)
		}
		sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

		var (
			rows    []model.Turnover
			skipped int
		)
		for _, rk := range order {
			acct, ok := snap.AccountAt(rk, d)
			if !ok {
				// Unknown account nature/currency: exclude this account's
				// contribution rather than failing the whole batch.
				slog.Warn("account has no active version, skipping",
					"account_rk", rk, "date", d.String())
				skipped++
				continue
			}

			rate, fellBack := snap.RateOrIdentity(acct.CurrencyRK, d)
			if fellBack {
				slog.Warn("no exchange rate resolved, using identity rate",
					"currency_rk", acct.CurrencyRK, "date", d.String())
			}

			s := byAccount[rk]
			rows = append(rows, model.Turnover{
				OnDate:          d,
				AccountRK:       rk,
				DebetAmount:     s.debet,
				DebetAmountRub:  s.debet.Mul(rate),
				CreditAmount:    s.credit,
				CreditAmountRub: s.credit.Mul(rate),
			})
		}

		if err := e.store.ReplaceTurnovers(ctx, d, rows); err != nil {
			return 0, "", newCalcError(ErrCodeReplaceFailed, StageTurnover, d, "replace turnovers", err)
		}

		note := ""
		if skipped > 0 {
			note = fmt.Sprintf("%s: skipped %d unresolved account(s)", d, skipped)
		}
		slog.Info("turnover computed", "date", d.String(), "rows", len(rows), "skipped", skipped)
		return int64(len(rows)), note, nil
	})
}

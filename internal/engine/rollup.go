package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mzavyalov/bankdm/internal/model"
)

// f101Group accumulates one summary row. Local ("rub") and foreign ("val")
// columns are summed independently; totals are formed as rub+val at
// finalization so that total == local + foreign holds by construction,
// never by a separate recomputation.
type f101Group struct {
	chapter        string
	ledgerAccount  string
	characteristic string

	balInRub, balInVal     decimal.Decimal
	turnDebRub, turnDebVal decimal.Decimal
	turnCreRub, turnCreVal decimal.Decimal
	balOutRub, balOutVal   decimal.Decimal
}

// ComputeRollup aggregates account-level balances and turnovers into the
// regulatory F101 summary for the calendar month preceding reportDate, and
// rewrites the summary mart for that period.
//
// The covered period is [startOfPreviousMonth(reportDate), reportDate-1].
// Opening balances are taken at the day before the period start, closing
// balances at the period end, turnovers summed over the whole period, all
// in reporting currency.
//
// Accounts are grouped by (chapter, 5-character ledger-account prefix,
// nature) and classified local/foreign by currency-code membership in the
// configured local set. The chart reference is resolved as of the period
// start, so a chapter remapping mid-period never retroactively changes
// already-posted prior-period rows.
func (e *Engine) ComputeRollup(ctx context.Context, reportDate model.Date) (int64, error) {
	from := reportDate.StartOfPrevMonth()
	to := reportDate.Prev()
	opening := from.Prev()

	note := fmt.Sprintf("%s..%s", from, to)
	return e.runStage(ctx, StageRollup, note, func() (int64, string, error) {
		snap, err := e.snapshot(ctx)
		if err != nil {
			return 0, "", fmt.Errorf("rollup %s: %w", reportDate, err)
		}

		openingBalances, err := e.store.BalancesByDate(ctx, opening)
		if err != nil {
			return 0, "", fmt.Errorf("rollup %s: %w", reportDate, err)
		}
		closingBalances, err := e.store.BalancesByDate(ctx, to)
		if err != nil {
			return 0, "", fmt.Errorf("rollup %s: %w", reportDate, err)
		}
		turnovers, err := e.store.TurnoversInRange(ctx, from, to)
		if err != nil {
			return 0, "", fmt.Errorf("rollup %s: %w", reportDate, err)
		}

		type turnSums struct {
			deb decimal.Decimal
			cre decimal.Decimal
		}
		turnByAccount := make(map[int64]*turnSums)
		for _, t := range turnovers {
			s, ok := turnByAccount[t.AccountRK]
			if !ok {
				s = &turnSums{}
				turnByAccount[t.AccountRK] = s
			}
			s.deb = s.deb.Add(t.DebetAmountRub)
			s.cre = s.cre.Add(t.CreditAmountRub)
		}

		type groupKey struct {
			chapter        string
			ledgerAccount  string
			characteristic string
		}
		groups := make(map[groupKey]*f101Group)
		var order []groupKey
		skipped := 0

		for _, acct := range snap.AccountsActiveIn(from, to) {
			prefix := acct.LedgerPrefix()
			if prefix == "" {
				slog.Warn("account number too short for ledger prefix, skipping",
					"account_rk", acct.AccountRK, "number", acct.Number)
				skipped++
				continue
			}
			ref, ok := snap.LedgerRefAt(prefix, from)
			if !ok {
				slog.Warn("no chart reference for ledger prefix, skipping",
					"account_rk", acct.AccountRK, "prefix", prefix)
				skipped++
				continue
			}

			key := groupKey{chapter: ref.Chapter, ledgerAccount: prefix, characteristic: acct.CharType}
			g, ok := groups[key]
			if !ok {
				g = &f101Group{chapter: key.chapter, ledgerAccount: key.ledgerAccount, characteristic: key.characteristic}
				groups[key] = g
				order = append(order, key)
			}

			local := e.localCodes[acct.CurrencyCode]

			balIn := decimal.Zero
			if b, ok := openingBalances[acct.AccountRK]; ok {
				balIn = b.BalanceOutRub
			}
			balOut := decimal.Zero
			if b, ok := closingBalances[acct.AccountRK]; ok {
				balOut = b.BalanceOutRub
			}
			turnDeb, turnCre := decimal.Zero, decimal.Zero
			if t, ok := turnByAccount[acct.AccountRK]; ok {
				turnDeb, turnCre = t.deb, t.cre
			}

			if local {
				g.balInRub = g.balInRub.Add(balIn)
				g.turnDebRub = g.turnDebRub.Add(turnDeb)
				g.turnCreRub = g.turnCreRub.Add(turnCre)
				g.balOutRub = g.balOutRub.Add(balOut)
			} else {
				g.balInVal = g.balInVal.Add(balIn)
				g.turnDebVal = g.turnDebVal.Add(turnDeb)
				g.turnCreVal = g.turnCreVal.Add(turnCre)
				g.balOutVal = g.balOutVal.Add(balOut)
			}
		}

		sort.Slice(order, func(i, j int) bool {
			a, b := order[i], order[j]
			if a.ledgerAccount != b.ledgerAccount {
				return a.ledgerAccount < b.ledgerAccount
			}
			return a.characteristic < b.characteristic
		})

		rows := make([]model.F101Row, 0, len(order))
		for _, key := range order {
			g := groups[key]
			rows = append(rows, model.F101Row{
				FromDate:       from,
				ToDate:         to,
				Chapter:        g.chapter,
				LedgerAccount:  g.ledgerAccount,
				Characteristic: g.characteristic,

				BalanceInRub:   g.balInRub,
				BalanceInVal:   g.balInVal,
				BalanceInTotal: g.balInRub.Add(g.balInVal),

				TurnDebRub:   g.turnDebRub,
				TurnDebVal:   g.turnDebVal,
				TurnDebTotal: g.turnDebRub.Add(g.turnDebVal),

				TurnCreRub:   g.turnCreRub,
				TurnCreVal:   g.turnCreVal,
				TurnCreTotal: g.turnCreRub.Add(g.turnCreVal),

				BalanceOutRub:   g.balOutRub,
				BalanceOutVal:   g.balOutVal,
				BalanceOutTotal: g.balOutRub.Add(g.balOutVal),
			})
		}

		if err := e.store.ReplaceF101(ctx, from, to, rows); err != nil {
			return 0, "", newCalcError(ErrCodeReplaceFailed, StageRollup, reportDate, "replace f101", err)
		}

		successNote := ""
		if skipped > 0 {
			successNote = fmt.Sprintf("%s..%s: skipped %d unmapped account(s)", from, to, skipped)
		}
		slog.Info("f101 computed", "from", from.String(), "to", to.String(),
			"rows", len(rows), "skipped", skipped)
		return int64(len(rows)), successNote, nil
	})
}

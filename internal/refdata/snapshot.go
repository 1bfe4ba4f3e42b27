// Package refdata resolves effective-dated dimension records: given an
// entity and a date, it returns the single version valid on that date.
//
// Accounts and currencies carry at most one active version per date, so the
// lookup is a plain interval hit. Exchange-rate versions may overlap; there
// the version with the latest start date not after the lookup date wins.
// Rate misses are not errors - the caller applies an identity rate so
// inconsistent dimension data does not halt daily processing.
package refdata

import (
	"github.com/shopspring/decimal"

	"github.com/mzavyalov/bankdm/internal/model"
)

// Snapshot is an immutable in-memory index of all dimension versions,
// loaded once per engine operation. Safe for concurrent reads.
type Snapshot struct {
	accounts   map[int64]*timeline[model.Account]
	currencies map[int64]*timeline[model.Currency]
	rates      map[int64]*timeline[model.ExchangeRate]
	ledger     map[string]*timeline[model.LedgerRef]

	accountRKs []int64 // insertion order of first appearance, for deterministic iteration
}

// NewSnapshot indexes the given dimension versions.
func NewSnapshot(
	accounts []model.Account,
	currencies []model.Currency,
	rates []model.ExchangeRate,
	ledgerRefs []model.LedgerRef,
) *Snapshot {
	s := &Snapshot{
		accounts:   make(map[int64]*timeline[model.Account]),
		currencies: make(map[int64]*timeline[model.Currency]),
		rates:      make(map[int64]*timeline[model.ExchangeRate]),
		ledger:     make(map[string]*timeline[model.LedgerRef]),
	}

	for _, a := range accounts {
		tl, ok := s.accounts[a.AccountRK]
		if !ok {
			tl = &timeline[model.Account]{}
			s.accounts[a.AccountRK] = tl
			s.accountRKs = append(s.accountRKs, a.AccountRK)
		}
		tl.add(a.ActualFrom, a.ActualTo, a)
	}
	for _, c := range currencies {
		tl, ok := s.currencies[c.CurrencyRK]
		if !ok {
			tl = &timeline[model.Currency]{}
			s.currencies[c.CurrencyRK] = tl
		}
		tl.add(c.ActualFrom, c.ActualTo, c)
	}
	for _, r := range rates {
		tl, ok := s.rates[r.CurrencyRK]
		if !ok {
			tl = &timeline[model.ExchangeRate]{}
			s.rates[r.CurrencyRK] = tl
		}
		tl.add(r.ActualFrom, r.ActualTo, r)
	}
	for _, l := range ledgerRefs {
		tl, ok := s.ledger[l.LedgerAccount]
		if !ok {
			tl = &timeline[model.LedgerRef]{}
			s.ledger[l.LedgerAccount] = tl
		}
		tl.add(l.StartDate, l.EndDate, l)
	}

	for _, tl := range s.accounts {
		tl.sortByStart()
	}
	for _, tl := range s.currencies {
		tl.sortByStart()
	}
	for _, tl := range s.rates {
		tl.sortByStart()
	}
	for _, tl := range s.ledger {
		tl.sortByStart()
	}

	return s
}

// AccountAt returns the account version active on d.
// A miss is a hard condition for callers: an account with unknown nature
// cannot be aggregated, so its legs are excluded from output.
func (s *Snapshot) AccountAt(accountRK int64, d model.Date) (model.Account, bool) {
	tl, ok := s.accounts[accountRK]
	if !ok {
		return model.Account{}, false
	}
	return tl.at(d)
}

// CurrencyAt returns the currency version active on d.
func (s *Snapshot) CurrencyAt(currencyRK int64, d model.Date) (model.Currency, bool) {
	tl, ok := s.currencies[currencyRK]
	if !ok {
		return model.Currency{}, false
	}
	return tl.at(d)
}

// RateAt returns the reporting-currency rate for a currency on d.
// When no version resolves, ok is false and the caller must fall back to
// the identity rate.
func (s *Snapshot) RateAt(currencyRK int64, d model.Date) (decimal.Decimal, bool) {
	tl, ok := s.rates[currencyRK]
	if !ok {
		return decimal.Decimal{}, false
	}
	r, ok := tl.at(d)
	if !ok {
		return decimal.Decimal{}, false
	}
	return r.Rate, true
}

// RateOrIdentity returns the resolved rate, or 1 with fellBack=true when no
// version covers d. The fallback deliberately conflates a genuine 1:1 rate
// with missing data; callers log it as a data-quality warning.
func (s *Snapshot) RateOrIdentity(currencyRK int64, d model.Date) (rate decimal.Decimal, fellBack bool) {
	if r, ok := s.RateAt(currencyRK, d); ok {
		return r, false
	}
	return decimal.NewFromInt(1), true
}

// LedgerRefAt returns the chart-reference version for a ledger-account
// prefix: the latest version with start date <= d.
func (s *Snapshot) LedgerRefAt(prefix string, d model.Date) (model.LedgerRef, bool) {
	tl, ok := s.ledger[prefix]
	if !ok {
		return model.LedgerRef{}, false
	}
	return tl.at(d)
}

// ActiveAccounts returns one account version per account active on d,
// in deterministic (first-appearance) order.
func (s *Snapshot) ActiveAccounts(d model.Date) []model.Account {
	var out []model.Account
	for _, rk := range s.accountRKs {
		if a, ok := s.accounts[rk].at(d); ok {
			out = append(out, a)
		}
	}
	return out
}

// AccountsActiveIn returns one account version per account whose validity
// intersects [from, to]: the latest version overlapping the period. Used by
// the rollup stage to cover accounts opened or closed mid-period.
func (s *Snapshot) AccountsActiveIn(from, to model.Date) []model.Account {
	var out []model.Account
	for _, rk := range s.accountRKs {
		if a, ok := s.accounts[rk].latestOverlapping(from, to); ok {
			out = append(out, a)
		}
	}
	return out
}

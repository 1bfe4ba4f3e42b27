package model

import "github.com/shopspring/decimal"

// Account nature flags. An active ("A") account grows with debits,
// a passive ("P") account grows with credits.
const (
	CharTypeActive  = "A"
	CharTypePassive = "P"
)

// Run ledger statuses.
const (
	RunStarted = "STARTED"
	RunSuccess = "SUCCESS"
	RunFailed  = "FAILED"
)

// LedgerPrefixLen is the number of leading account-number digits that
// identify a ledger account in the regulatory chart.
const LedgerPrefixLen = 5

// Posting is one immutable double-entry fact: a credit leg and a debit leg
// posted on a single operation date. Amounts are in the native currency of
// the respective account.
type Posting struct {
	OperDate        Date
	CreditAccountRK int64
	DebetAccountRK  int64
	CreditAmount    decimal.Decimal
	DebetAmount     decimal.Decimal
}

// Account is one effective-dated version of an account record.
// ActualTo == nil means the version is open-ended.
type Account struct {
	AccountRK    int64
	ActualFrom   Date
	ActualTo     *Date
	Number       string
	CharType     string // CharTypeActive or CharTypePassive
	CurrencyRK   int64
	CurrencyCode string
}

// LedgerPrefix returns the leading ledger-account digits of the account
// number, or "" if the number is too short to carry one.
func (a Account) LedgerPrefix() string {
	if len(a.Number) < LedgerPrefixLen {
		return ""
	}
	return a.Number[:LedgerPrefixLen]
}

// Currency is one effective-dated version of a currency record.
type Currency struct {
	CurrencyRK int64
	ActualFrom Date
	ActualTo   *Date
	Code       string
	ISOChar    string
}

// ExchangeRate is one effective-dated version of a currency's rate to the
// reporting currency. Unlike accounts and currencies, rate versions may
// overlap; the latest-starting version covering a date is authoritative.
type ExchangeRate struct {
	CurrencyRK int64
	ActualFrom Date
	ActualTo   *Date
	Rate       decimal.Decimal
	ISONum     string
}

// LedgerRef is one version of the regulatory chart-of-accounts reference,
// keyed by (LedgerAccount, StartDate).
type LedgerRef struct {
	Chapter            string
	ChapterName        string
	SectionNumber      string
	SectionName        string
	SubsectionName     string
	Ledger1Account     string
	Ledger1AccountName string
	LedgerAccount      string
	LedgerAccountName  string
	Characteristic     string
	StartDate          Date
	EndDate            *Date
}

// BalanceSnapshot is an opening-balance row from the source snapshot,
// consumed only when seeding the balance mart.
type BalanceSnapshot struct {
	OnDate     Date
	AccountRK  int64
	CurrencyRK int64
	BalanceOut decimal.Decimal
}

// Turnover is the derived per-account activity for one date, in native
// and reporting ("rub") currency.
type Turnover struct {
	OnDate          Date
	AccountRK       int64
	DebetAmount     decimal.Decimal
	DebetAmountRub  decimal.Decimal
	CreditAmount    decimal.Decimal
	CreditAmountRub decimal.Decimal
}

// Balance is the derived closing position of one account on one date.
type Balance struct {
	OnDate        Date
	AccountRK     int64
	BalanceOut    decimal.Decimal
	BalanceOutRub decimal.Decimal
}

// F101Row is one regulatory summary row: a (chapter, ledger account,
// characteristic) group over a reporting period, with opening balance,
// turnovers and closing balance split into local-currency ("Rub"),
// foreign-currency ("Val") and total columns.
type F101Row struct {
	FromDate       Date
	ToDate         Date
	Chapter        string
	LedgerAccount  string
	Characteristic string

	BalanceInRub   decimal.Decimal
	BalanceInVal   decimal.Decimal
	BalanceInTotal decimal.Decimal

	TurnDebRub   decimal.Decimal
	TurnDebVal   decimal.Decimal
	TurnDebTotal decimal.Decimal

	TurnCreRub   decimal.Decimal
	TurnCreVal   decimal.Decimal
	TurnCreTotal decimal.Decimal

	BalanceOutRub   decimal.Decimal
	BalanceOutVal   decimal.Decimal
	BalanceOutTotal decimal.Decimal
}

// Run is one run-ledger record. Created STARTED at operation entry and
// updated exactly once at exit with SUCCESS or FAILED.
type Run struct {
	RunID      int64
	BatchToken string
	Stage      string
	StartedAt  string
	FinishedAt string
	Status     string
	RowsLoaded int64
	Note       string
}

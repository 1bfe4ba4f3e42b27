package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mzavyalov/bankdm/internal/refdata"
	"github.com/mzavyalov/bankdm/internal/store"
)

// Stage names recorded in the run ledger.
const (
	StageTurnover = "calc_turnover"
	StageBalance  = "calc_balance"
	StageSeed     = "seed_balance"
	StageRollup   = "calc_f101"
)

// DefaultLocalCurrencyCodes identifies reporting-currency ("local") accounts
// by currency code. Everything else counts as foreign currency.
var DefaultLocalCurrencyCodes = []string{"810", "643"}

// Engine computes the derived marts. One Engine instance serves one driver
// invocation: all run-ledger records it writes share a single batch token.
//
// The dimension snapshot is loaded lazily on first use and reused across
// operations; dimensions are assumed static for the life of the batch.
type Engine struct {
	store      *store.Store
	localCodes map[string]bool
	batchToken string

	snap *refdata.Snapshot
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocalCurrencyCodes overrides the local-currency code set used by the
// rollup stage.
func WithLocalCurrencyCodes(codes []string) Option {
	return func(e *Engine) {
		e.localCodes = make(map[string]bool, len(codes))
		for _, c := range codes {
			e.localCodes[c] = true
		}
	}
}

// WithBatchToken sets a fixed batch token. Used by tests; production
// engines default to a fresh UUIDv7, which keeps tokens sortable by
// creation time.
func WithBatchToken(token string) Option {
	return func(e *Engine) {
		e.batchToken = token
	}
}

// New creates an Engine over the given store.
func New(st *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:      st,
		batchToken: uuid.Must(uuid.NewV7()).String(),
	}
	WithLocalCurrencyCodes(DefaultLocalCurrencyCodes)(e)

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BatchToken returns the token shared by this engine's run-ledger records.
func (e *Engine) BatchToken() string {
	return e.batchToken
}

// snapshot returns the cached dimension snapshot, loading it on first use.
func (e *Engine) snapshot(ctx context.Context) (*refdata.Snapshot, error) {
	if e.snap != nil {
		return e.snap, nil
	}

	accounts, err := e.store.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	currencies, err := e.store.Currencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("load currencies: %w", err)
	}
	rates, err := e.store.ExchangeRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load exchange rates: %w", err)
	}
	refs, err := e.store.LedgerRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger refs: %w", err)
	}

	e.snap = refdata.NewSnapshot(accounts, currencies, rates, refs)
	slog.Debug("dimension snapshot loaded",
		"accounts", len(accounts), "currencies", len(currencies),
		"rates", len(rates), "ledger_refs", len(refs))
	return e.snap, nil
}

// runStage wraps an operation with its run-ledger lifecycle: a STARTED
// record at entry, updated exactly once at exit with the row count on
// success or the error text on failure.
// The success note is optional; when empty, the entry note is kept.
func (e *Engine) runStage(ctx context.Context, stage, note string, fn func() (rows int64, successNote string, err error)) (int64, error) {
	runID, err := e.store.BeginRun(ctx, e.batchToken, stage, note)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", stage, err)
	}

	rows, successNote, err := fn()
	if err != nil {
		if cerr := e.store.CompleteRun(ctx, runID, "FAILED", 0, err.Error()); cerr != nil {
			slog.Error("failed to record run failure", "run_id", runID, "error", cerr)
		}
		return 0, err
	}

	if err := e.store.CompleteRun(ctx, runID, "SUCCESS", rows, successNote); err != nil {
		return rows, fmt.Errorf("%s: %w", stage, err)
	}
	return rows, nil
}

// Package engine computes the derived marts of the bankdm warehouse.
//
// The engine is a sequence of single-writer batch steps, not a concurrent
// system. For each calendar date, in strictly increasing order:
//
//	ComputeTurnover(d)  summarizes postings into per-account debit/credit
//	                    totals in native and reporting currency.
//	ComputeBalance(d)   carries each account's closing balance forward from
//	                    d-1 using that day's turnover and the account nature.
//
// Once all daily facts for a calendar month exist, ComputeRollup(reportDate)
// aggregates them into regulatory summary rows for the month preceding
// reportDate.
//
// Every operation rewrites its mart for the date/period key as one atomic
// delete-then-insert transaction and records exactly one run-ledger entry:
// STARTED on entry, SUCCESS or FAILED on exit. Failure of one date never
// invalidates previously committed dates.
//
// Running two instances of the same operation for the same key concurrently
// is outside the engine's guarantees; the caller must serialize by key.
package engine

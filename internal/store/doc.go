// Package store provides SQLite-backed storage for the bankdm warehouse.
//
// The store holds three groups of tables:
//   - Source facts and dimensions (ft_posting, ft_balance, md_*): loaded
//     from CSV extracts, read-only to the calculation engine.
//   - Derived marts (dm_account_turnover, dm_account_balance, dm_f101):
//     exclusively owned by their producing stage and fully rewritten per
//     date/period key via atomic delete-then-insert.
//   - Run ledger (etl_runs): one row per engine invocation, the sole audit
//     trail for diagnosing which date failed and why.
//
// # Critical Patterns
//
// Replace atomicity: every mart rewrite for a key executes as a single
// transaction. A reader never observes a half-replaced set; a failed
// rewrite leaves the previously committed rows intact.
//
// Key uniqueness: each derived table carries a UNIQUE constraint on its
// full key tuple, enforcing at-most-one-row-per-key after replace.
//
// Exact amounts: money travels as decimal text, never floating point.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store

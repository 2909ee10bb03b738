// Package store provides the SQLite-backed run ledger for the storecheck CLI.
//
// The ledger is append-only:
//   - runs: one row per scenario execution (outcome, code, timing)
//   - steps: the execution trace of each run
//
// Scenario state never lives here; the scenario core keeps everything in
// memory and the CLI records finished outcomes afterwards.
//
// # Ordering
//
// Runs are ordered by seq, the insertion order, never by started_at, so
// listings stay stable when clocks are skewed or runs overlap. Steps are
// ordered by their recorded seq.
//
// # Idempotency
//
// Writing a run whose ID is already present is a no-op, including its steps.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait up to 5s on lock contention
//   - foreign_keys=ON: steps reference runs
package store

// Package engine is the reminder materialization and queue core.
//
// The Materializer turns active rules into dated, idempotently keyed
// instances inside a tier-dependent forward window; the Queue scorer ranks
// the instances due today-or-earlier and caps them per tier; the state
// machine applies guarded user transitions (complete, snooze, unsnooze,
// skip).
//
// Correctness under concurrent triggers (periodic sweep, rule edit, target
// webhook overlapping) rests entirely on the store's per-key atomic upsert
// and guarded conditional transitions - the engine itself holds no locks
// across a batch, and every operation is safe to retry.
package engine

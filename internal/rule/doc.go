// Package rule defines the domain types for the reminder engine: recurrence
// rules, materialized instances, targets, and the closed enums (type, kind,
// priority, anchor mode, status) the rest of the engine switches over.
//
// Validation lives here so that every entry point (CUE import, CLI flags,
// direct API use) enforces the same invariants before a rule reaches the
// store or the recurrence calculator.
package rule

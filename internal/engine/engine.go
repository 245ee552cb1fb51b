package engine

import (
	"github.com/roach88/cadence/internal/store"
)

// Engine wires the materializer, queue scorer, and instance state machine
// over one store. It is safe for concurrent use: every write path is either
// an idempotent keyed upsert or a guarded single-row conditional update.
type Engine struct {
	store *store.Store
	clock Clock
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock. Tests pass a frozen clock so
// recurrence and overdue scoring are deterministic.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an Engine over the given store.
func New(s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store: s,
		clock: SystemClock{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the underlying store. Used by the CLI for rule and target
// management, which sits outside the engine's contract.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Clock returns the engine's clock.
func (e *Engine) Clock() Clock {
	return e.clock
}

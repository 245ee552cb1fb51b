package engine

import "time"

// Clock supplies "now" to every date computation in the engine. Taking the
// current time through an interface instead of reading time.Now() inline is
// what lets tests pin recurrence and overdue scoring to arbitrary dates.
//
// Production uses SystemClock; tests use testutil.FrozenClock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

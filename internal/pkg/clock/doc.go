// Package clock provides a tiny time abstraction.
//
// Production code should depend on the Clocker interface instead of calling
// time.Now() directly, and on Scheduler when it needs a periodic countdown.
// Fake drives both deterministically in tests.
package clock

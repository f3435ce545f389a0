// Package poller drives repeated fetch-normalize-derive cycles against the
// backend status endpoint and exposes a cancellable subscription to consumers.
//
// Each Start call owns one session: a single goroutine performing strictly
// sequential ticks, so there is never more than one outstanding network call
// or pending timer per session. Sessions share nothing with each other beyond
// the read-only stage table, so any number of jobs can be watched concurrently.
//
// Cancellation is a single atomic flag checked before dispatching a network
// call and again before acting on its result; a result that lands after Stop
// is discarded. Callbacks are only ever invoked from the session goroutine.
package poller

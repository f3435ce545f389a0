package poller

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"jobwatch/internal/stages"
)

// State describes why a session is running or how it ended.
type State string

const (
	StatePolling   State = "polling"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
	StateTimedOut  State = "timed_out"
)

// Session is a handle to one running poll loop. Handles are safe for
// concurrent use.
type Session struct {
	id     uuid.UUID
	jobID  string
	engine *Engine
	cb     Callbacks
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	started    atomic.Bool
	cancelled  atomic.Bool
	inCallback atomic.Bool
	state      atomic.Value // State
}

// Start launches the poll loop. Calling Start more than once has no effect.
func (s *Session) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.engine.run(s.ctx, s, s.cb, s.opts)
}

// ID returns the session correlation identifier used in log lines and
// history records.
func (s *Session) ID() uuid.UUID { return s.id }

// JobID returns the job this session is watching.
func (s *Session) JobID() string { return s.jobID }

// Done is closed when the session goroutine has exited. No callback runs
// after Done is closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// State reports the current lifecycle state.
func (s *Session) State() State { return s.state.Load().(State) }

// Stop cancels the session. It is idempotent, safe from any goroutine, and
// safe to call from inside a callback. Once the first Stop call returns, no
// callback will be invoked again: an in-flight fetch result is discarded
// rather than dispatched.
func (s *Session) Stop() {
	if !s.cancelled.CompareAndSwap(false, true) {
		return
	}
	s.cancel()
	// When called from inside a callback the loop goroutine is the caller,
	// so waiting on done would deadlock; the loop re-checks the cancelled
	// flag before every subsequent callback instead.
	if s.started.Load() && !s.inCallback.Load() {
		<-s.done
	}
}

// invoke runs a callback with the reentrancy flag set so Stop called from
// inside it does not block on the session's own goroutine.
func (s *Session) invoke(fn func()) {
	s.inCallback.Store(true)
	fn()
	s.inCallback.Store(false)
}

// dispatchProgress delivers a snapshot unless the session was stopped, and
// reports whether the loop may continue afterwards.
func (s *Session) dispatchProgress(cb Callbacks, snap stages.Snapshot) bool {
	if s.cancelled.Load() {
		return false
	}
	if cb.OnProgress != nil {
		s.invoke(func() { cb.OnProgress(snap) })
	}
	return !s.cancelled.Load()
}

func (s *Session) end(state State, logger *slog.Logger) {
	s.state.Store(state)
	logger.Info("session ended", slog.String("state", string(state)))
}

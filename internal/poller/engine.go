package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"jobwatch/internal/config"
	"jobwatch/internal/logging"
	"jobwatch/internal/stages"
	"jobwatch/internal/status"
)

const (
	defaultInterval    = 3 * time.Second
	defaultMaxAttempts = 400
)

// Fetcher retrieves the raw status document for a job. *status.Client is the
// production implementation; tests substitute scripted fetchers.
type Fetcher interface {
	Fetch(ctx context.Context, jobID string) ([]byte, error)
}

// Callbacks receives session events. Every field is optional. All callbacks
// are invoked from the session goroutine, one at a time, and it is safe to
// call Session.Stop from inside any of them.
type Callbacks struct {
	// OnProgress fires once per successfully decoded snapshot, terminal
	// or not.
	OnProgress func(stages.Snapshot)
	// OnComplete fires at most once, after the OnProgress call for the
	// completed snapshot. The session ends afterwards.
	OnComplete func(stages.Snapshot)
	// OnError fires at most once, when the session ends without
	// completion: attempt budget exhausted or the job itself failed.
	// Transient fetch failures do not reach OnError; they are logged and
	// the session keeps polling.
	OnError func(ErrorKind, string)
}

// Options tunes a single session. Zero values fall back to the defaults
// used by the sample configuration.
type Options struct {
	Interval    time.Duration
	MaxAttempts int
}

// OptionsFromConfig builds session options from the polling section of the
// loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Interval:    time.Duration(cfg.Polling.IntervalMS) * time.Millisecond,
		MaxAttempts: cfg.Polling.MaxAttempts,
	}
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = defaultInterval
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	return o
}

// Engine starts polling sessions. It holds no per-job state, so one engine
// serves any number of concurrent sessions.
type Engine struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// New creates an engine around the given fetcher. A nil logger disables
// logging.
func New(fetcher Fetcher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{fetcher: fetcher, logger: logging.NewComponentLogger(logger, "poller")}
}

// NewSession prepares a session for jobID without launching it, so callers
// can wire the handle into their callbacks before the first tick fires.
// The session ends when the job reaches a terminal state, the attempt
// budget runs out, Stop is called, or ctx is cancelled.
func (e *Engine) NewSession(ctx context.Context, jobID string, cb Callbacks, opts Options) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		id:     uuid.New(),
		jobID:  jobID,
		engine: e,
		cb:     cb,
		opts:   opts.withDefaults(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.state.Store(StatePolling)
	return s
}

// Start launches a session for jobID and returns immediately. The first
// fetch is dispatched right away rather than after the first interval.
func (e *Engine) Start(ctx context.Context, jobID string, cb Callbacks, opts Options) *Session {
	s := e.NewSession(ctx, jobID, cb, opts)
	s.Start()
	return s
}

func (e *Engine) run(ctx context.Context, s *Session, cb Callbacks, opts Options) {
	defer close(s.done)

	logger := e.logger.With(
		logging.String(logging.FieldSessionID, s.id.String()),
		logging.String(logging.FieldJobID, s.jobID),
	)
	logger.Info("session started",
		logging.Duration("interval", opts.Interval),
		logging.Int("max_attempts", opts.MaxAttempts))

	var (
		lastProgress float64
		emitted      bool
	)

	for attempt := 1; ; attempt++ {
		if s.cancelled.Load() {
			s.end(StateCancelled, logger)
			return
		}
		if attempt > opts.MaxAttempts {
			s.end(StateTimedOut, logger)
			if cb.OnError != nil {
				s.invoke(func() {
					cb.OnError(KindTimeout, fmt.Sprintf("job %s not terminal after %d attempts", s.jobID, opts.MaxAttempts))
				})
			}
			return
		}

		snapshot, err := e.tick(ctx, s.jobID)

		// A result that lands after Stop is discarded, never dispatched.
		if s.cancelled.Load() {
			s.end(StateCancelled, logger)
			return
		}

		if err != nil {
			// Failures keep the session alive until the budget runs
			// out. That includes 4xx responses: a job the backend
			// has not registered yet looks identical to one it
			// never will.
			logger.Warn("poll attempt failed",
				logging.Int(logging.FieldAttempt, attempt),
				logging.String("kind", string(Classify(err))),
				logging.Error(err))
		} else {
			if snapshot.Error == "" {
				if snapshot.OverallProgress < lastProgress {
					snapshot.OverallProgress = lastProgress
				}
				lastProgress = snapshot.OverallProgress
			} else if emitted {
				// A failed job freezes progress at the last
				// good value.
				snapshot.OverallProgress = lastProgress
			}
			emitted = true

			logger.Debug("snapshot",
				logging.Int(logging.FieldAttempt, attempt),
				logging.String(logging.FieldStage, string(snapshot.CurrentStage)),
				logging.Float64("progress", snapshot.OverallProgress))

			if !s.dispatchProgress(cb, snapshot) {
				s.end(StateCancelled, logger)
				return
			}

			switch {
			case snapshot.IsComplete:
				s.end(StateCompleted, logger)
				if cb.OnComplete != nil {
					s.invoke(func() { cb.OnComplete(snapshot) })
				}
				return
			case snapshot.Error != "":
				s.end(StateFailed, logger)
				if cb.OnError != nil {
					s.invoke(func() { cb.OnError(KindJobFailed, snapshot.Error) })
				}
				return
			}
		}

		if !sleep(ctx, opts.Interval) {
			s.end(StateCancelled, logger)
			return
		}
	}
}

// tick performs one fetch-normalize-derive round trip.
func (e *Engine) tick(ctx context.Context, jobID string) (stages.Snapshot, error) {
	raw, err := e.fetcher.Fetch(ctx, jobID)
	if err != nil {
		return stages.Snapshot{}, err
	}
	canonical, err := status.Normalize(raw)
	if err != nil {
		return stages.Snapshot{}, err
	}
	return stages.Derive(canonical), nil
}

// sleep waits for the interval and reports false when ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"jobwatch/internal/history"
	"jobwatch/internal/logging"
	"jobwatch/internal/poller"
	"jobwatch/internal/stages"
	"jobwatch/internal/status"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var (
		intervalFlag    time.Duration
		maxAttemptsFlag int
		noHistoryFlag   bool
	)

	cmd := &cobra.Command{
		Use:   "watch <job-id>",
		Short: "Poll a job until it completes or fails",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := strings.TrimSpace(args[0])
			if jobID == "" {
				return errors.New("job id is required")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			lock, err := acquireJobLock(cfg.Paths.StateDir, jobID)
			if err != nil {
				return err
			}
			defer func() { _ = lock.Unlock() }()

			var store *history.Store
			if cfg.History.Enabled && !noHistoryFlag {
				store, err = history.Open(cfg)
				if err != nil {
					return fmt.Errorf("open history store: %w", err)
				}
				defer func() { _ = store.Close() }()
			}

			opts := poller.OptionsFromConfig(cfg)
			if intervalFlag > 0 {
				opts.Interval = intervalFlag
			}
			if maxAttemptsFlag > 0 {
				opts.MaxAttempts = maxAttemptsFlag
			}

			runCtx, stopSignals := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stopSignals()

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			engine := poller.New(status.NewConfiguredClient(cfg), logger)

			var (
				session      *poller.Session
				attempt      atomic.Int64
				lastSnapshot stages.Snapshot
				sawSnapshot  bool
			)

			cb := poller.Callbacks{
				OnProgress: func(snap stages.Snapshot) {
					n := attempt.Add(1)
					lastSnapshot = snap
					sawSnapshot = true
					fmt.Fprintln(out, renderProgressLine(snap, colorize))
					if store != nil {
						if _, err := store.RecordSnapshot(runCtx, session.ID().String(), jobID, int(n), snap); err != nil {
							logger.Warn("record snapshot",
								logging.String(logging.FieldJobID, jobID),
								logging.Error(err))
						}
					}
				},
			}

			terminalErr := make(chan error, 1)
			cb.OnComplete = func(stages.Snapshot) {
				terminalErr <- nil
			}
			cb.OnError = func(kind poller.ErrorKind, msg string) {
				terminalErr <- fmt.Errorf("job %s: %s: %s", jobID, kind, msg)
			}

			session = engine.NewSession(runCtx, jobID, cb, opts)
			session.Start()
			<-session.Done()

			// lastSnapshot is safe to read here: the session goroutine
			// has exited and no callback can still be running.
			if sawSnapshot {
				fmt.Fprintln(out, renderTable(snapshotHeaders, buildSnapshotRows(lastSnapshot), 2))
			}

			select {
			case err := <-terminalErr:
				if err == nil {
					fmt.Fprintf(out, "Job %s completed\n", jobID)
				}
				return err
			default:
			}

			if runCtx.Err() != nil {
				fmt.Fprintf(out, "Watch for job %s cancelled\n", jobID)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&intervalFlag, "interval", 0, "Override the polling interval (e.g. 5s)")
	cmd.Flags().IntVar(&maxAttemptsFlag, "max-attempts", 0, "Override the polling attempt budget")
	cmd.Flags().BoolVar(&noHistoryFlag, "no-history", false, "Skip recording snapshots to the history store")
	return cmd
}

// acquireJobLock takes a per-job advisory lock so two watch invocations on
// one machine cannot interleave output and history rows for the same job.
func acquireJobLock(stateDir, jobID string) (*flock.Flock, error) {
	lockDir := filepath.Join(stateDir, "locks")
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(filepath.Join(lockDir, sanitizeLockName(jobID)+".lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire watch lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("job %s is already being watched by another jobwatch process", jobID)
	}
	return lock, nil
}

func sanitizeLockName(jobID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, jobID)
}

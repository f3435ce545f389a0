package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jobwatch/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect snapshots recorded by past watch sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listJobsHistory(ctx, cmd)
		},
	}

	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))

	return historyCmd
}

func listJobsHistory(ctx *commandContext, cmd *cobra.Command) error {
	return ctx.withStore(func(store *history.Store) error {
		summaries, err := store.Jobs(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(summaries) == 0 {
			fmt.Fprintln(out, "No watch history recorded yet")
			return nil
		}
		fmt.Fprintln(out, renderTable(jobHeaders, buildJobRows(summaries), 1, 2))
		return nil
	})
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var (
		limitFlag int
		jsonFlag  bool
	)

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show recorded snapshots for a job, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := strings.TrimSpace(args[0])
			return ctx.withStore(func(store *history.Store) error {
				records, err := store.JobHistory(cmd.Context(), jobID, limitFlag)
				if err != nil {
					return err
				}
				if jsonFlag {
					return writeJSON(cmd, records)
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintf(out, "No snapshots recorded for job %s\n", jobID)
					return nil
				}
				fmt.Fprintln(out, renderTable(historyHeaders, buildHistoryRows(records), 0, 2))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Maximum snapshots to show (0 for all)")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit records as JSON")
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *history.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d snapshots\n", removed)
				return nil
			})
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete snapshots older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive, got %s", olderThan)
			}
			return ctx.withStore(func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), olderThan)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d snapshots older than %s\n", removed, olderThan)
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Retention window (e.g. 168h)")
	return cmd
}

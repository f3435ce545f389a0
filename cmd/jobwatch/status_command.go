package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"jobwatch/internal/stages"
	"jobwatch/internal/status"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Fetch the current status of a job once",
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

			client := status.NewConfiguredClient(cfg)
			raw, err := client.Fetch(cmd.Context(), jobID)
			if err != nil {
				return fmt.Errorf("fetch status for job %s: %w", jobID, err)
			}
			canonical, err := status.Normalize(raw)
			if err != nil {
				return fmt.Errorf("decode status for job %s: %w", jobID, err)
			}
			snap := stages.Derive(canonical)

			if jsonFlag {
				return writeJSON(cmd, snap)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderProgressLine(snap, shouldColorize(out)))
			fmt.Fprintln(out, renderTable(snapshotHeaders, buildSnapshotRows(snap), 2))
			if snap.Error != "" {
				return fmt.Errorf("job %s failed: %s", jobID, snap.Error)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the snapshot as JSON")
	return cmd
}

func newStagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "stages",
		Short:       "List the pipeline stages in order",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(stageHeaders, buildStageRows(), 0))
			return nil
		},
	}
}

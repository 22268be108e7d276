package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect or control the publish queue",
}

var queueStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print queue counts and job status totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			stats, err := a.jobs.Stats(ctx, tenantFlag)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		})
	},
}

func queueControl(use, short, done string, op func(*app) func(context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := op(a)(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), done)
				return nil
			})
		},
	}
}

var tenantFlag string

func init() {
	queueStatsCmd.Flags().StringVar(&tenantFlag, "tenant", "", "Limit job totals to one tenant")
	queueCmd.AddCommand(
		queueStatsCmd,
		queueControl("pause", "Stop workers from taking new jobs", "Queue paused",
			func(a *app) func(context.Context) error { return a.jobs.PauseQueue }),
		queueControl("resume", "Let workers take jobs again", "Queue resumed",
			func(a *app) func(context.Context) error { return a.jobs.ResumeQueue }),
		queueControl("drain", "Drop every waiting and delayed entry", "Queue drained",
			func(a *app) func(context.Context) error { return a.jobs.DrainQueue }),
	)
	rootCmd.AddCommand(queueCmd)
}

// withApp wires the stores for a one-shot operator command.
func withApp(cmd *cobra.Command, fn func(context.Context, *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	defer a.queue.Close()
	return fn(ctx, a)
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Operate on a single post job",
}

// Operator commands run without a tenant, so ownership is not checked.
var jobCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel a pending job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.jobs.CancelJob(ctx, "", args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %s cancelled\n", args[0])
			return nil
		})
	},
}

var jobRetryCmd = &cobra.Command{
	Use:   "retry <id>",
	Short: "Requeue a failed job with a fresh attempt budget",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.jobs.RetryJob(ctx, "", args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %s requeued\n", args[0])
			return nil
		})
	},
}

func init() {
	jobCmd.AddCommand(jobCancelCmd, jobRetryCmd)
	rootCmd.AddCommand(jobCmd)
}

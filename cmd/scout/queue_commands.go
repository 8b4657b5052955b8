package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and maintain the delivery queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(services *cliServices) error {
				stats, err := services.queue.Stats(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"QUEUED", "SUBMITTING", "SUBMITTED", "FAILED", "TOTAL"},
					[][]string{{
						strconv.Itoa(stats.Queued),
						strconv.Itoa(stats.Submitting),
						strconv.Itoa(stats.Submitted),
						strconv.Itoa(stats.Failed),
						strconv.Itoa(stats.Total),
					}},
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List delivery queue entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(services *cliServices) error {
				entries, err := services.queue.List(cmd.Context(), status, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "Delivery queue is empty.")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					detail := entry.LastError
					if detail == "" {
						detail = entry.CreatedAt
					}
					rows = append(rows, []string{
						strconv.FormatInt(entry.ID, 10),
						entry.Title,
						entry.MediaType,
						entry.Status,
						strconv.Itoa(entry.AttemptCount),
						detail,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "TITLE", "TYPE", "STATUS", "ATTEMPTS", "DETAIL"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only entries with this status (queued, submitting, submitted, failed)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum entries to list")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Requeue failed entries with a fresh attempt budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(services *cliServices) error {
				reset, err := services.queue.RetryFailed(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d failed entries\n", reset)
				return nil
			})
		},
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Run database diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(services *cliServices) error {
				health, err := services.db.CheckHealth(cmd.Context())
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("Database Health", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Path", statusInfo, health.DBPath, colorize))
				fmt.Fprintln(out, renderStatusLine("Exists", boolKind(health.DatabaseExists), "", colorize))
				fmt.Fprintln(out, renderStatusLine("Readable", boolKind(health.DatabaseReadable), "", colorize))
				if len(health.MissingTables) > 0 {
					fmt.Fprintln(out, renderStatusLine("Tables", statusError,
						fmt.Sprintf("missing %v", health.MissingTables), colorize))
				} else {
					fmt.Fprintln(out, renderStatusLine("Tables", statusOK,
						fmt.Sprintf("%d present", len(health.TablesPresent)), colorize))
				}
				fmt.Fprintln(out, renderStatusLine("Integrity", boolKind(health.IntegrityCheck), "", colorize))
				if err != nil {
					return err
				}
				return nil
			})
		},
	}
}

func boolKind(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusError
}

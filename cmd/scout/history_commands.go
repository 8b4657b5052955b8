package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scout/internal/api"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var jobID, status string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show job execution history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(services *cliServices) error {
				page, err := services.history.List(cmd.Context(), api.HistoryQuery{
					JobID:  jobID,
					Status: status,
					Limit:  limit,
					Offset: offset,
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(page.Executions) == 0 {
					fmt.Fprintln(out, "No executions recorded.")
					return nil
				}

				rows := make([][]string, 0, len(page.Executions))
				for _, exec := range page.Executions {
					detail := exec.ErrorMessage
					if detail == "" {
						detail = fmt.Sprintf("%d results, %d requested", exec.Results, exec.Requested)
					}
					rows = append(rows, []string{
						exec.StartedAt,
						exec.JobName,
						exec.Status,
						detail,
						exec.ID,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"STARTED", "JOB", "STATUS", "DETAIL", "ID"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				fmt.Fprintf(out, "Showing %d of %d executions (offset %d)\n",
					len(page.Executions), page.Total, page.Offset)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&jobID, "job", "", "Only executions of this job id")
	cmd.Flags().StringVar(&status, "status", "", "Only executions with this status (running, completed, failed)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "Page offset")
	return cmd
}

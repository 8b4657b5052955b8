package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scout/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			status, live, err := fetchStatus(cmd.Context(), ctx)
			if err != nil {
				return err
			}

			for _, line := range renderSectionHeader("Scout Daemon", colorize) {
				fmt.Fprintln(out, line)
			}
			if live {
				fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", status.PID), colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, "not reachable, showing database state", colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Database", statusInfo, status.DBPath, colorize))
			fmt.Fprintln(out, renderStatusLine("Jobs", statusInfo,
				fmt.Sprintf("%d total, %d enabled", status.Jobs, status.JobsEnabled), colorize))

			queueKind := statusOK
			if status.Queue.Failed > 0 {
				queueKind = statusWarn
			}
			fmt.Fprintln(out, renderStatusLine("Queue", queueKind,
				fmt.Sprintf("%d pending, %d submitted, %d failed",
					status.Queue.Pending, status.Queue.Submitted, status.Queue.Failed), colorize))
			return nil
		},
	}
}

// fetchStatus asks the daemon's HTTP API first and falls back to reading
// the database directly when no daemon is listening.
func fetchStatus(ctx context.Context, cmdCtx *commandContext) (api.DaemonStatus, bool, error) {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return api.DaemonStatus{}, false, err
	}

	if bind := strings.TrimSpace(cfg.Paths.APIBind); bind != "" {
		status, err := requestStatus(ctx, "http://"+bind+"/api/status", cfg.Paths.APIToken)
		if err == nil {
			return status, true, nil
		}
	}

	var status api.DaemonStatus
	err = cmdCtx.withServices(func(services *cliServices) error {
		status = localStatus(ctx, services)
		return nil
	})
	return status, false, err
}

func requestStatus(ctx context.Context, url, token string) (api.DaemonStatus, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return api.DaemonStatus{}, err
	}
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return api.DaemonStatus{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return api.DaemonStatus{}, fmt.Errorf("daemon status: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var status api.DaemonStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return api.DaemonStatus{}, err
	}
	return status, nil
}

func localStatus(ctx context.Context, services *cliServices) api.DaemonStatus {
	status := api.DaemonStatus{DBPath: services.db.Path()}
	if list, err := services.jobs.List(ctx); err == nil {
		status.Jobs = len(list)
		for _, job := range list {
			if job.Enabled {
				status.JobsEnabled++
			}
		}
	}
	if stats, err := services.queue.Stats(ctx); err == nil {
		status.Queue = stats
	}
	return status
}

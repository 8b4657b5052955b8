package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func writeCLIConfig(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
api_bind = ""

[tmdb]
api_key = "test"

[overseerr]
url = "http://overseerr.test"
api_key = "test"
`, filepath.Join(base, "data"), filepath.Join(base, "logs"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}

var jobIDPattern = regexp.MustCompile(`\(([0-9a-f-]{36})\)`)

func TestCLIJobLifecycle(t *testing.T) {
	configPath := writeCLIConfig(t)

	out, _, err := runCLI(t, configPath, "job", "create",
		"--name", "weekly-movies",
		"--type", "discover",
		"--media", "movie",
		"--schedule", "weekly",
		"--max-results", "10",
		"--min-rating", "7.0",
		"--exclude-requested")
	if err != nil {
		t.Fatalf("job create: %v", err)
	}
	requireContains(t, out, `Created job "weekly-movies"`)
	requireContains(t, out, "Next run:")

	match := jobIDPattern.FindStringSubmatch(out)
	if match == nil {
		t.Fatalf("could not find job id in output:\n%s", out)
	}
	jobID := match[1]

	out, _, err = runCLI(t, configPath, "job", "list")
	if err != nil {
		t.Fatalf("job list: %v", err)
	}
	requireContains(t, out, "weekly-movies")
	requireContains(t, out, "weekly")

	out, _, err = runCLI(t, configPath, "job", "show", jobID)
	if err != nil {
		t.Fatalf("job show: %v", err)
	}
	requireContains(t, out, "Enabled:   yes")
	requireContains(t, out, "rating >= 7.0")
	requireContains(t, out, "requested")

	out, _, err = runCLI(t, configPath, "job", "update", jobID, "--max-results", "5")
	if err != nil {
		t.Fatalf("job update: %v", err)
	}
	requireContains(t, out, "Updated job")

	out, _, err = runCLI(t, configPath, "job", "show", jobID)
	if err != nil {
		t.Fatalf("job show after update: %v", err)
	}
	requireContains(t, out, "Max:       5")

	out, _, err = runCLI(t, configPath, "job", "disable", jobID)
	if err != nil {
		t.Fatalf("job disable: %v", err)
	}
	requireContains(t, out, "disabled")

	out, _, err = runCLI(t, configPath, "job", "show", jobID)
	if err != nil {
		t.Fatalf("job show after disable: %v", err)
	}
	requireContains(t, out, "Enabled:   no")

	out, _, err = runCLI(t, configPath, "job", "delete", jobID)
	if err != nil {
		t.Fatalf("job delete: %v", err)
	}
	requireContains(t, out, "Deleted job")

	if _, _, err := runCLI(t, configPath, "job", "show", jobID); err == nil {
		t.Fatal("expected show after delete to fail")
	}

	out, _, err = runCLI(t, configPath, "job", "list")
	if err != nil {
		t.Fatalf("job list after delete: %v", err)
	}
	requireContains(t, out, "No jobs defined")
}

func TestCLIJobCreateRejectsBadDraft(t *testing.T) {
	configPath := writeCLIConfig(t)

	_, _, err := runCLI(t, configPath, "job", "create",
		"--name", "bad",
		"--type", "discover",
		"--media", "movie",
		"--schedule", "weekly",
		"--max-results", "0")
	if err == nil {
		t.Fatal("expected create with zero max-results to fail")
	}
}

func TestCLIQueueCommands(t *testing.T) {
	configPath := writeCLIConfig(t)

	out, _, err := runCLI(t, configPath, "queue", "status")
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "TOTAL")

	out, _, err = runCLI(t, configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "Delivery queue is empty.")

	out, _, err = runCLI(t, configPath, "queue", "retry")
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	requireContains(t, out, "Requeued 0 failed entries")

	out, _, err = runCLI(t, configPath, "queue", "health")
	if err != nil {
		t.Fatalf("queue health: %v", err)
	}
	requireContains(t, out, "Database Health")
	requireContains(t, out, "Integrity")
}

func TestCLIHistoryEmpty(t *testing.T) {
	configPath := writeCLIConfig(t)

	out, _, err := runCLI(t, configPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No executions recorded.")
}

func TestCLIStatusWithoutDaemon(t *testing.T) {
	configPath := writeCLIConfig(t)

	out, _, err := runCLI(t, configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Daemon")
	requireContains(t, out, "Jobs")
	requireContains(t, out, "Queue")
}

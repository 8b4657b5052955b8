package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scout/internal/config"
)

const userAgent = "Scout/0.1.0"

// Service defines the notification surface exposed to the scheduler and
// delivery worker.
type Service interface {
	NotifyJobCompleted(ctx context.Context, jobName string, results, requested int) error
	NotifyJobFailed(ctx context.Context, jobName, reason string) error
	NotifyQueueDrained(ctx context.Context, submitted, failed int) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
// Per-event-type toggles are applied here so callers never branch.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		jobEvents:  cfg.Notifications.Jobs,
		queueEvent: cfg.Notifications.Queue,
		errEvents:  cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	jobEvents  bool
	queueEvent bool
	errEvents  bool
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, jobName string, results, requested int) error {
	if !n.jobEvents {
		return nil
	}
	jobName = strings.TrimSpace(jobName)
	data := payload{
		title:   "Scout - Job Complete",
		message: fmt.Sprintf("%s: %d candidates, %d requested", jobName, results, requested),
		tags:    []string{"scout", "job", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, jobName, reason string) error {
	if !n.jobEvents {
		return nil
	}
	jobName = strings.TrimSpace(jobName)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	data := payload{
		title:    "Scout - Job Failed",
		message:  fmt.Sprintf("%s failed: %s", jobName, reason),
		tags:     []string{"scout", "job", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQueueDrained(ctx context.Context, submitted, failed int) error {
	if !n.queueEvent {
		return nil
	}
	var message string
	var title string
	if failed == 0 {
		title = "Scout - Queue Drained"
		message = fmt.Sprintf("Delivery queue drained: %d requests submitted", submitted)
	} else {
		title = "Scout - Queue Drained (with errors)"
		message = fmt.Sprintf("Delivery queue drained: %d submitted, %d failed", submitted, failed)
	}
	data := payload{
		title:   title,
		message: message,
		tags:    []string{"scout", "queue", "drained"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errEvents {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Scout - Error",
		message:  builder.String(),
		tags:     []string{"scout", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Scout - Test",
		message:  "Notification system test",
		tags:     []string{"scout", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyJobCompleted(context.Context, string, int, int) error { return nil }
func (noopService) NotifyJobFailed(context.Context, string, string) error      { return nil }
func (noopService) NotifyQueueDrained(context.Context, int, int) error         { return nil }
func (noopService) NotifyError(context.Context, error, string) error           { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }

package notifications_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"scout/internal/notifications"
	"scout/internal/testsupport"
)

type captured struct {
	title    string
	message  string
	tags     string
	priority string
}

func newNtfyServer(t *testing.T) (*httptest.Server, *[]captured) {
	t.Helper()
	var requests []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := make([]byte, r.ContentLength)
		r.Body.Read(body)
		requests = append(requests, captured{
			title:    r.Header.Get("Title"),
			message:  string(body),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		})
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func TestNoopWhenUnconfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = ""
	service := notifications.NewService(cfg)
	if err := service.NotifyJobCompleted(context.Background(), "job", 1, 1); err != nil {
		t.Fatalf("noop service returned error: %v", err)
	}
}

func TestJobCompletedNotification(t *testing.T) {
	server, requests := newNtfyServer(t)
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Jobs = true
	service := notifications.NewService(cfg)

	if err := service.NotifyJobCompleted(context.Background(), "Popular movies", 12, 8); err != nil {
		t.Fatalf("NotifyJobCompleted: %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*requests))
	}
	got := (*requests)[0]
	if got.title != "Scout - Job Complete" {
		t.Fatalf("title = %q", got.title)
	}
	if !strings.Contains(got.message, "12 candidates") || !strings.Contains(got.message, "8 requested") {
		t.Fatalf("message = %q", got.message)
	}
}

func TestJobEventsToggleOff(t *testing.T) {
	server, requests := newNtfyServer(t)
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Jobs = false
	service := notifications.NewService(cfg)

	if err := service.NotifyJobFailed(context.Background(), "job", "boom"); err != nil {
		t.Fatalf("NotifyJobFailed: %v", err)
	}
	if len(*requests) != 0 {
		t.Fatal("job events disabled but a request was sent")
	}
}

func TestQueueDrainedWithFailures(t *testing.T) {
	server, requests := newNtfyServer(t)
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Queue = true
	service := notifications.NewService(cfg)

	if err := service.NotifyQueueDrained(context.Background(), 5, 2); err != nil {
		t.Fatalf("NotifyQueueDrained: %v", err)
	}
	got := (*requests)[0]
	if !strings.Contains(got.title, "with errors") {
		t.Fatalf("title = %q", got.title)
	}
	if !strings.Contains(got.message, "5 submitted") || !strings.Contains(got.message, "2 failed") {
		t.Fatalf("message = %q", got.message)
	}
}

func TestErrorNotificationPriority(t *testing.T) {
	server, requests := newNtfyServer(t)
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Errors = true
	service := notifications.NewService(cfg)

	if err := service.NotifyError(context.Background(), errors.New("tmdb unreachable"), "resolver"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	got := (*requests)[0]
	if got.priority != "high" {
		t.Fatalf("priority = %q", got.priority)
	}
	if !strings.Contains(got.message, "resolver") || !strings.Contains(got.message, "tmdb unreachable") {
		t.Fatalf("message = %q", got.message)
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic not found", http.StatusNotFound)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL
	service := notifications.NewService(cfg)

	if err := service.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for 404 from ntfy")
	}
}

package jobs_test

import (
	"testing"
	"time"

	"scout/internal/jobs"
)

func TestNextRunPreset(t *testing.T) {
	after := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cases := map[string]time.Duration{
		"hourly":    time.Hour,
		"every_6h":  6 * time.Hour,
		"every_12h": 12 * time.Hour,
		"daily":     24 * time.Hour,
		"weekly":    7 * 24 * time.Hour,
	}
	for name, want := range cases {
		next, err := jobs.NextRun(jobs.Schedule{Kind: jobs.ScheduleKindPreset, Expr: name}, after)
		if err != nil {
			t.Fatalf("NextRun(%s): %v", name, err)
		}
		if got := next.Sub(after); got != want {
			t.Fatalf("preset %s advanced %v, want %v", name, got, want)
		}
	}
}

func TestNextRunPresetNormalizesCase(t *testing.T) {
	after := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	next, err := jobs.NextRun(jobs.Schedule{Kind: jobs.ScheduleKindPreset, Expr: "  Daily "}, after)
	if err != nil {
		t.Fatalf("NextRun: %v", err)
	}
	if next.Sub(after) != 24*time.Hour {
		t.Fatalf("unexpected next run %v", next)
	}
}

func TestNextRunCron(t *testing.T) {
	after := time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC)
	next, err := jobs.NextRun(jobs.Schedule{Kind: jobs.ScheduleKindCron, Expr: "0 3 * * *"}, after)
	if err != nil {
		t.Fatalf("NextRun: %v", err)
	}
	want := time.Date(2025, 3, 11, 3, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next run %v, want %v", next, want)
	}
	if !next.After(after) {
		t.Fatal("next run must be strictly after the reference instant")
	}
}

func TestNextRunCronDescriptor(t *testing.T) {
	after := time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC)
	next, err := jobs.NextRun(jobs.Schedule{Kind: jobs.ScheduleKindCron, Expr: "@daily"}, after)
	if err != nil {
		t.Fatalf("NextRun: %v", err)
	}
	want := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next run %v, want %v", next, want)
	}
}

func TestNextRunRejectsBadInput(t *testing.T) {
	after := time.Now()
	cases := []jobs.Schedule{
		{Kind: jobs.ScheduleKindPreset, Expr: "fortnightly"},
		{Kind: jobs.ScheduleKindCron, Expr: ""},
		{Kind: jobs.ScheduleKindCron, Expr: "not a cron"},
		{Kind: "interval", Expr: "5m"},
	}
	for _, schedule := range cases {
		if _, err := jobs.NextRun(schedule, after); err == nil {
			t.Fatalf("expected error for %+v", schedule)
		}
	}
}

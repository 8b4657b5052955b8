package jobs_test

import (
	"testing"

	"scout/internal/jobs"
	"scout/internal/media"
)

func validJob() *jobs.Job {
	return &jobs.Job{
		Name:       "Popular movies",
		Type:       jobs.TypeDiscover,
		MediaType:  media.TypeMovie,
		Enabled:    true,
		MaxResults: 10,
		Schedule:   jobs.Schedule{Kind: jobs.ScheduleKindPreset, Expr: "daily"},
	}
}

func TestJobValidate(t *testing.T) {
	if err := validJob().Validate(); err != nil {
		t.Fatalf("valid job rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*jobs.Job)
	}{
		{"empty name", func(j *jobs.Job) { j.Name = "  " }},
		{"unknown type", func(j *jobs.Job) { j.Type = "scan" }},
		{"unknown media type", func(j *jobs.Job) { j.MediaType = "music" }},
		{"zero max results", func(j *jobs.Job) { j.MaxResults = 0 }},
		{"recommendation without users", func(j *jobs.Job) {
			j.Type = jobs.TypeRecommendation
			j.Users = nil
			j.AllUsers = false
		}},
		{"inverted year range", func(j *jobs.Job) {
			j.Filters.YearFrom = 2020
			j.Filters.YearTo = 2010
		}},
		{"bad schedule", func(j *jobs.Job) { j.Schedule.Expr = "sometimes" }},
	}
	for _, tc := range cases {
		job := validJob()
		tc.mutate(job)
		if err := job.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestJobValidateRecommendationAllUsers(t *testing.T) {
	job := validJob()
	job.Type = jobs.TypeRecommendation
	job.AllUsers = true
	if err := job.Validate(); err != nil {
		t.Fatalf("all_users recommendation rejected: %v", err)
	}
}

func TestParseType(t *testing.T) {
	if got, ok := jobs.ParseType(" Discover "); !ok || got != jobs.TypeDiscover {
		t.Fatalf("ParseType(Discover) = %q, %v", got, ok)
	}
	if _, ok := jobs.ParseType("sync"); ok {
		t.Fatal("expected sync to be rejected")
	}
}

func TestParseExecutionStatus(t *testing.T) {
	if got, ok := jobs.ParseExecutionStatus("COMPLETED"); !ok || got != jobs.ExecutionCompleted {
		t.Fatalf("ParseExecutionStatus(COMPLETED) = %q, %v", got, ok)
	}
	if _, ok := jobs.ParseExecutionStatus("done"); ok {
		t.Fatal("expected done to be rejected")
	}
}

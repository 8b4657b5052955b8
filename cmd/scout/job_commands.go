package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"scout/internal/api"
)

func newJobCommand(ctx *commandContext) *cobra.Command {
	jobCmd := &cobra.Command{
		Use:   "job",
		Short: "Manage discovery jobs",
	}

	jobCmd.AddCommand(newJobCreateCommand(ctx))
	jobCmd.AddCommand(newJobListCommand(ctx))
	jobCmd.AddCommand(newJobShowCommand(ctx))
	jobCmd.AddCommand(newJobUpdateCommand(ctx))
	jobCmd.AddCommand(newJobDeleteCommand(ctx))
	jobCmd.AddCommand(newJobEnableCommand(ctx, true))
	jobCmd.AddCommand(newJobEnableCommand(ctx, false))
	jobCmd.AddCommand(newJobRunCommand(ctx))
	jobCmd.AddCommand(newJobDryRunCommand(ctx))
	jobCmd.AddCommand(newJobConfirmCommand(ctx))

	return jobCmd
}

type jobFlags struct {
	name              string
	jobType           string
	mediaType         string
	schedule          string
	maxResults        int
	minRating         float64
	minVotes          int64
	excludeGenres     []int
	language          string
	yearFrom          int
	yearTo            int
	maxSeasons        int
	region            string
	excludeServices   []string
	includeUnrated    bool
	users             []string
	allUsers          bool
	excludeDownloaded bool
	excludeRequested  bool
	honorDiscovery    bool
}

func (f *jobFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.name, "name", "", "Job display name")
	flags.StringVar(&f.jobType, "type", "", "Job type (discover or recommendation)")
	flags.StringVar(&f.mediaType, "media", "", "Media type (movie, tv, or both)")
	flags.StringVar(&f.schedule, "schedule", "", "Schedule preset (hourly, daily, weekly, monthly) or cron expression")
	flags.IntVar(&f.maxResults, "max-results", 0, "Maximum titles requested per firing")
	flags.Float64Var(&f.minRating, "min-rating", 0, "Minimum provider rating")
	flags.Int64Var(&f.minVotes, "min-votes", 0, "Minimum vote count")
	flags.IntSliceVar(&f.excludeGenres, "exclude-genre", nil, "Genre id to exclude (repeatable)")
	flags.StringVar(&f.language, "language", "", "Required original language (BCP-47)")
	flags.IntVar(&f.yearFrom, "year-from", 0, "Earliest release year")
	flags.IntVar(&f.yearTo, "year-to", 0, "Latest release year")
	flags.IntVar(&f.maxSeasons, "max-seasons", 0, "Maximum season count for TV titles")
	flags.StringVar(&f.region, "region", "", "Watch-provider region for service exclusions")
	flags.StringSliceVar(&f.excludeServices, "exclude-service", nil, "Streaming service to exclude (repeatable)")
	flags.BoolVar(&f.includeUnrated, "include-unrated", false, "Keep titles without a rating")
	flags.StringSliceVar(&f.users, "user", nil, "Watch-history user for recommendation jobs (repeatable)")
	flags.BoolVar(&f.allUsers, "all-users", false, "Seed recommendations from every user")
	flags.BoolVar(&f.excludeDownloaded, "exclude-downloaded", false, "Skip titles already in the library")
	flags.BoolVar(&f.excludeRequested, "exclude-requested", false, "Skip titles already requested downstream")
	flags.BoolVar(&f.honorDiscovery, "honor-discovery", false, "Honor downstream discovery blocklist and language")
}

// parseSchedule maps the flag value onto the schedule grammar. Values with
// spaces or an @-descriptor are cron; single words are presets.
func parseSchedule(value string) api.ScheduleView {
	trimmed := strings.TrimSpace(value)
	if strings.ContainsAny(trimmed, " \t") || strings.HasPrefix(trimmed, "@") {
		return api.ScheduleView{Kind: "cron", Expr: trimmed}
	}
	return api.ScheduleView{Kind: "preset", Expr: trimmed}
}

func (f *jobFlags) draft() api.JobDraft {
	return api.JobDraft{
		Name:       f.name,
		Type:       f.jobType,
		MediaType:  f.mediaType,
		MaxResults: f.maxResults,
		Filters: api.FilterView{
			MinRating:        f.minRating,
			MinVotes:         f.minVotes,
			ExcludedGenres:   f.excludeGenres,
			Language:         f.language,
			YearFrom:         f.yearFrom,
			YearTo:           f.yearTo,
			MaxSeasons:       f.maxSeasons,
			Region:           f.region,
			ExcludedServices: f.excludeServices,
			IncludeUnrated:   f.includeUnrated,
		},
		Schedule:          parseSchedule(f.schedule),
		Users:             f.users,
		AllUsers:          f.allUsers,
		ExcludeDownloaded: f.excludeDownloaded,
		ExcludeRequested:  f.excludeRequested,
		HonorDiscovery:    f.honorDiscovery,
	}
}

// overlay starts from an existing job and replaces only the fields whose
// flags were set, so update does not require restating the whole job.
func (f *jobFlags) overlay(cmd *cobra.Command, view api.JobView) api.JobDraft {
	draft := api.JobDraft{
		Name:              view.Name,
		Type:              view.Type,
		MediaType:         view.MediaType,
		MaxResults:        view.MaxResults,
		Filters:           view.Filters,
		Schedule:          view.Schedule,
		Users:             view.Users,
		AllUsers:          view.AllUsers,
		ExcludeDownloaded: view.ExcludeDownloaded,
		ExcludeRequested:  view.ExcludeRequested,
		HonorDiscovery:    view.HonorDiscovery,
	}

	flags := cmd.Flags()
	if flags.Changed("name") {
		draft.Name = f.name
	}
	if flags.Changed("type") {
		draft.Type = f.jobType
	}
	if flags.Changed("media") {
		draft.MediaType = f.mediaType
	}
	if flags.Changed("schedule") {
		draft.Schedule = parseSchedule(f.schedule)
	}
	if flags.Changed("max-results") {
		draft.MaxResults = f.maxResults
	}
	if flags.Changed("min-rating") {
		draft.Filters.MinRating = f.minRating
	}
	if flags.Changed("min-votes") {
		draft.Filters.MinVotes = f.minVotes
	}
	if flags.Changed("exclude-genre") {
		draft.Filters.ExcludedGenres = f.excludeGenres
	}
	if flags.Changed("language") {
		draft.Filters.Language = f.language
	}
	if flags.Changed("year-from") {
		draft.Filters.YearFrom = f.yearFrom
	}
	if flags.Changed("year-to") {
		draft.Filters.YearTo = f.yearTo
	}
	if flags.Changed("max-seasons") {
		draft.Filters.MaxSeasons = f.maxSeasons
	}
	if flags.Changed("region") {
		draft.Filters.Region = f.region
	}
	if flags.Changed("exclude-service") {
		draft.Filters.ExcludedServices = f.excludeServices
	}
	if flags.Changed("include-unrated") {
		draft.Filters.IncludeUnrated = f.includeUnrated
	}
	if flags.Changed("user") {
		draft.Users = f.users
	}
	if flags.Changed("all-users") {
		draft.AllUsers = f.allUsers
	}
	if flags.Changed("exclude-downloaded") {
		draft.ExcludeDownloaded = f.excludeDownloaded
	}
	if flags.Changed("exclude-requested") {
		draft.ExcludeRequested = f.excludeRequested
	}
	if flags.Changed("honor-discovery") {
		draft.HonorDiscovery = f.honorDiscovery
	}
	return draft
}

func newJobCreateCommand(ctx *commandContext) *cobra.Command {
	flags := &jobFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a discovery job",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(services *cliServices) error {
				created, err := services.jobs.Create(cmd.Context(), flags.draft())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created job %q (%s)\n", created.Name, created.ID)
				fmt.Fprintf(out, "Next run: %s\n", created.NextRun)
				return nil
			})
		},
	}
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("media")
	_ = cmd.MarkFlagRequired("schedule")
	_ = cmd.MarkFlagRequired("max-results")
	return cmd
}

func newJobListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(services *cliServices) error {
				list, err := services.jobs.List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(list) == 0 {
					fmt.Fprintln(out, "No jobs defined. Create one with `scout job create`.")
					return nil
				}
				rows := make([][]string, 0, len(list))
				for _, job := range list {
					rows = append(rows, []string{
						job.Name,
						job.Type,
						job.MediaType,
						yesNo(job.Enabled),
						strconv.Itoa(job.MaxResults),
						job.Schedule.Expr,
						job.NextRun,
						job.ID,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"NAME", "TYPE", "MEDIA", "ENABLED", "MAX", "SCHEDULE", "NEXT RUN", "ID"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newJobShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(services *cliServices) error {
				job, err := services.jobs.Describe(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printJob(cmd, job)
				return nil
			})
		},
	}
}

func printJob(cmd *cobra.Command, job api.JobView) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job:       %s (%s)\n", job.Name, job.ID)
	fmt.Fprintf(out, "Type:      %s / %s\n", job.Type, job.MediaType)
	fmt.Fprintf(out, "Enabled:   %s\n", yesNo(job.Enabled))
	fmt.Fprintf(out, "Schedule:  %s (%s)\n", job.Schedule.Expr, job.Schedule.Kind)
	fmt.Fprintf(out, "Max:       %d\n", job.MaxResults)
	if job.NextRun != "" {
		fmt.Fprintf(out, "Next run:  %s\n", job.NextRun)
	}
	if job.Type == "recommendation" {
		if job.AllUsers {
			fmt.Fprintln(out, "Users:     all")
		} else {
			fmt.Fprintf(out, "Users:     %s\n", strings.Join(job.Users, ", "))
		}
	}

	var filters []string
	f := job.Filters
	if f.MinRating > 0 {
		filters = append(filters, fmt.Sprintf("rating >= %.1f", f.MinRating))
	}
	if f.MinVotes > 0 {
		filters = append(filters, fmt.Sprintf("votes >= %d", f.MinVotes))
	}
	if len(f.ExcludedGenres) > 0 {
		filters = append(filters, fmt.Sprintf("excluded genres %v", f.ExcludedGenres))
	}
	if f.Language != "" {
		filters = append(filters, "language "+f.Language)
	}
	if f.YearFrom > 0 || f.YearTo > 0 {
		filters = append(filters, fmt.Sprintf("years %d-%d", f.YearFrom, f.YearTo))
	}
	if f.MaxSeasons > 0 {
		filters = append(filters, fmt.Sprintf("max %d seasons", f.MaxSeasons))
	}
	if len(f.ExcludedServices) > 0 {
		filters = append(filters, fmt.Sprintf("not on %s", strings.Join(f.ExcludedServices, ", ")))
	}
	if f.IncludeUnrated {
		filters = append(filters, "unrated allowed")
	}
	if len(filters) > 0 {
		fmt.Fprintf(out, "Filters:   %s\n", strings.Join(filters, "; "))
	}

	var dedup []string
	if job.ExcludeDownloaded {
		dedup = append(dedup, "library")
	}
	if job.ExcludeRequested {
		dedup = append(dedup, "requested")
	}
	if job.HonorDiscovery {
		dedup = append(dedup, "discovery settings")
	}
	if len(dedup) > 0 {
		fmt.Fprintf(out, "Excludes:  %s\n", strings.Join(dedup, ", "))
	}
}

func newJobUpdateCommand(ctx *commandContext) *cobra.Command {
	flags := &jobFlags{}
	cmd := &cobra.Command{
		Use:   "update <job-id>",
		Short: "Update a job's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(services *cliServices) error {
				existing, err := services.jobs.Describe(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				updated, err := services.jobs.Update(cmd.Context(), args[0], flags.overlay(cmd, existing))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated job %q\n", updated.Name)
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newJobDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <job-id>",
		Short: "Delete a job and its execution history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(services *cliServices) error {
				if err := services.jobs.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted job %s\n", args[0])
				return nil
			})
		},
	}
}

func newJobEnableCommand(ctx *commandContext, enable bool) *cobra.Command {
	use, short := "enable <job-id>", "Enable a job's schedule"
	if !enable {
		use, short = "disable <job-id>", "Disable a job without deleting it"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(services *cliServices) error {
				if err := services.jobs.SetEnabled(cmd.Context(), args[0], enable); err != nil {
					return err
				}
				state := "enabled"
				if !enable {
					state = "disabled"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %s %s\n", args[0], state)
				return nil
			})
		},
	}
}

func newJobRunCommand(ctx *commandContext) *cobra.Command {
	var deliver bool
	cmd := &cobra.Command{
		Use:   "run <job-id>",
		Short: "Fire a job immediately, bypassing its schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(services *cliServices) error {
				outcome, err := services.jobs.RunNow(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Execution %s: %d results, %d queued for request\n",
					outcome.ExecutionID, outcome.Results, outcome.Requested)
				printCandidates(cmd, outcome.Candidates)

				if deliver {
					submitted := 0
					for {
						processed, err := services.worker.ProcessOne(cmd.Context())
						if err != nil {
							return err
						}
						if !processed {
							break
						}
						submitted++
					}
					fmt.Fprintf(out, "Delivered %d queue entries\n", submitted)
				} else if outcome.Requested > 0 {
					fmt.Fprintln(out, "Entries wait in the delivery queue; the daemon submits them.")
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&deliver, "deliver", false, "Drain the delivery queue immediately instead of leaving it to the daemon")
	return cmd
}

func newJobDryRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dry-run <job-id>",
		Short: "Preview what a firing would request, without side effects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(services *cliServices) error {
				preview, err := services.jobs.DryRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Dry run for %q: %d candidates\n", preview.JobName, len(preview.Candidates))
				printCandidates(cmd, preview.Candidates)
				if len(preview.Candidates) > 0 {
					fmt.Fprintf(out, "Confirm with `scout job confirm %s` within the hour.\n", preview.JobID)
				}
				return nil
			})
		},
	}
}

func newJobConfirmCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <job-id>",
		Short: "Enqueue the candidates of the last dry run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(services *cliServices) error {
				outcome, err := services.jobs.Confirm(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Execution %s: %d queued for request\n",
					outcome.ExecutionID, outcome.Requested)
				return nil
			})
		},
	}
}

func printCandidates(cmd *cobra.Command, candidates []api.CandidateView) {
	if len(candidates) == 0 {
		return
	}
	rows := make([][]string, 0, len(candidates))
	for _, candidate := range candidates {
		year := ""
		if candidate.Year > 0 {
			year = strconv.Itoa(candidate.Year)
		}
		rows = append(rows, []string{
			strconv.FormatInt(candidate.TMDBID, 10),
			candidate.MediaType,
			candidate.Title,
			year,
			fmt.Sprintf("%.1f", candidate.Rating),
			strconv.FormatInt(candidate.Votes, 10),
			candidate.Rationale,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"TMDB", "TYPE", "TITLE", "YEAR", "RATING", "VOTES", "WHY"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
}

package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scout/internal/config"
	"scout/internal/jobs"
	"scout/internal/logging"
	"scout/internal/media"
	"scout/internal/services/jellyfin"
	"scout/internal/services/tmdb"
)

// Resolver turns a job definition into an ordered candidate list by
// querying the catalog and watch-history providers.
type Resolver struct {
	catalog tmdb.Catalog
	history jellyfin.History
	cfg     config.Resolver
	logger  *slog.Logger
}

// New builds a resolver. history may be nil when no watch-history provider
// is configured; recommendation jobs then fail at resolve time.
func New(catalog tmdb.Catalog, history jellyfin.History, cfg config.Resolver, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{
		catalog: catalog,
		history: history,
		cfg:     cfg,
		logger:  logger.With(logging.String(logging.FieldComponent, "resolver")),
	}
}

// Resolve produces candidates for the job, ordered so that truncation at
// MaxResults keeps the strongest entries. Candidates are not yet filtered
// or deduplicated; the pipeline applies those gates afterwards.
func (r *Resolver) Resolve(ctx context.Context, job *jobs.Job) ([]media.Candidate, error) {
	switch job.Type {
	case jobs.TypeDiscover:
		return r.resolveDiscover(ctx, job)
	case jobs.TypeRecommendation:
		return r.resolveRecommendation(ctx, job)
	default:
		return nil, fmt.Errorf("unknown job type %q", job.Type)
	}
}

// Enrich fills the per-title fields discovery responses omit: season
// counts for TV candidates under an active season cap, and streaming
// services when the job excludes services in a region. Lookups that fail
// leave the candidate unenriched rather than dropping it.
func (r *Resolver) Enrich(ctx context.Context, candidates []media.Candidate, filters jobs.FilterSet) []media.Candidate {
	needSeasons := filters.MaxSeasons > 0
	needServices := len(filters.ExcludedServices) > 0 && filters.Region != ""
	if !needSeasons && !needServices {
		return candidates
	}

	enriched := make([]media.Candidate, len(candidates))
	copy(enriched, candidates)

	r.eachParallel(len(enriched), func(i int) {
		candidate := &enriched[i]
		if needSeasons && candidate.MediaType == media.TypeTV && candidate.SeasonCount == 0 {
			details, err := r.tvDetails(ctx, candidate.ID)
			if err != nil {
				r.logger.Warn("tv details lookup failed",
					logging.Int64("tmdb_id", candidate.ID), logging.Error(err))
			} else {
				candidate.SeasonCount = details.NumberOfSeasons
			}
		}
		if needServices && len(candidate.Services) == 0 {
			services, err := r.streamingServices(ctx, candidate, filters.Region)
			if err != nil {
				r.logger.Warn("watch provider lookup failed",
					logging.Int64("tmdb_id", candidate.ID), logging.Error(err))
			} else {
				candidate.Services = services
			}
		}
	})
	return enriched
}

func (r *Resolver) tvDetails(ctx context.Context, id int64) (*tmdb.TVDetails, error) {
	callCtx, cancel := r.providerContext(ctx)
	defer cancel()
	return r.catalog.GetTVDetails(callCtx, id)
}

func (r *Resolver) streamingServices(ctx context.Context, candidate *media.Candidate, region string) ([]string, error) {
	callCtx, cancel := r.providerContext(ctx)
	defer cancel()
	return r.catalog.StreamingServices(callCtx, string(candidate.MediaType), candidate.ID, region)
}

func (r *Resolver) providerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(r.cfg.ProviderTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *Resolver) parallelism() int {
	if r.cfg.Parallelism > 0 {
		return r.cfg.Parallelism
	}
	return 4
}

// eachParallel runs fn for indexes 0..n-1 on a bounded worker pool.
func (r *Resolver) eachParallel(n int, fn func(i int)) {
	if n == 0 {
		return
	}
	workers := r.parallelism()
	if workers > n {
		workers = n
	}
	indexes := make(chan int)
	done := make(chan struct{})
	for w := 0; w < workers; w++ {
		go func() {
			for i := range indexes {
				fn(i)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < n; i++ {
		indexes <- i
	}
	close(indexes)
	for w := 0; w < workers; w++ {
		<-done
	}
}

func candidateFromResult(result tmdb.Result, mediaType media.Type, rationale string) media.Candidate {
	return media.Candidate{
		ID:          result.ID,
		MediaType:   mediaType,
		Title:       result.DisplayTitle(),
		Rating:      result.VoteAverage,
		VoteCount:   result.VoteCount,
		Genres:      result.GenreIDs,
		Language:    result.OriginalLanguage,
		Year:        result.Year(),
		SeasonCount: result.NumberOfSeasons,
		Rationale:   rationale,
	}
}

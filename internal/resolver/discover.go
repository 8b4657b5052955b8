package resolver

import (
	"context"
	"fmt"

	"scout/internal/jobs"
	"scout/internal/logging"
	"scout/internal/media"
	"scout/internal/services/tmdb"
)

// Over-fetch headroom so the filter and dedup gates still leave MaxResults
// survivors, and a page ceiling so a loose filter set cannot walk the
// whole catalog.
const (
	discoverOversample = 3
	discoverMaxPages   = 5
)

func (r *Resolver) resolveDiscover(ctx context.Context, job *jobs.Job) ([]media.Candidate, error) {
	opts := discoverOptions(job.Filters)
	target := job.MaxResults * discoverOversample

	var candidates []media.Candidate
	seen := make(map[media.Key]struct{})

	for _, mediaType := range queryTypes(job.MediaType) {
		pages := 0
		for page := 1; page <= discoverMaxPages; page++ {
			opts.Page = page
			resp, err := r.discoverPage(ctx, mediaType, opts)
			if err != nil {
				return nil, fmt.Errorf("discover %s page %d: %w", mediaType, page, err)
			}
			pages++
			for _, result := range resp.Results {
				candidate := candidateFromResult(result, mediaType, "matched discover filters")
				if _, dup := seen[candidate.Key()]; dup {
					continue
				}
				seen[candidate.Key()] = struct{}{}
				candidates = append(candidates, candidate)
			}
			if page >= resp.TotalPages || len(candidates) >= target {
				break
			}
		}
		r.logger.Debug("discover query finished",
			logging.String("media_type", string(mediaType)),
			logging.Int("pages", pages),
			logging.Int("candidates", len(candidates)))
	}

	return candidates, nil
}

func (r *Resolver) discoverPage(ctx context.Context, mediaType media.Type, opts tmdb.DiscoverOptions) (*tmdb.Response, error) {
	callCtx, cancel := r.providerContext(ctx)
	defer cancel()
	if mediaType == media.TypeTV {
		return r.catalog.DiscoverTV(callCtx, opts)
	}
	return r.catalog.DiscoverMovies(callCtx, opts)
}

// discoverOptions translates the job's filter set into provider-side query
// parameters. The filter engine re-applies the same constraints afterwards
// to guard against provider drift.
func discoverOptions(filters jobs.FilterSet) tmdb.DiscoverOptions {
	return tmdb.DiscoverOptions{
		MinRating:      filters.MinRating,
		MinVotes:       filters.MinVotes,
		ExcludedGenres: filters.ExcludedGenres,
		Language:       filters.Language,
		YearFrom:       filters.YearFrom,
		YearTo:         filters.YearTo,
		Region:         filters.Region,
	}
}

// queryTypes expands the job media type into the concrete catalog queries
// to run. "both" fans out to movie then tv.
func queryTypes(mediaType media.Type) []media.Type {
	if mediaType == media.TypeBoth {
		return []media.Type{media.TypeMovie, media.TypeTV}
	}
	return []media.Type{mediaType}
}

package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"scout/internal/jobs"
	"scout/internal/logging"
	"scout/internal/media"
	"scout/internal/services"
	"scout/internal/services/jellyfin"
	"scout/internal/services/tmdb"
)

// seed is one watched title to expand into similar candidates. Rank is the
// watch-recency position, 0 being the most recently played.
type seed struct {
	tmdbID    int64
	mediaType media.Type
	title     string
	rank      int
}

func (r *Resolver) resolveRecommendation(ctx context.Context, job *jobs.Job) ([]media.Candidate, error) {
	if r.history == nil {
		return nil, services.Wrap(services.ErrConfiguration, "jellyfin", "recommendation",
			"watch-history provider not configured", nil)
	}

	users, err := r.resolveUsers(ctx, job)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, services.Wrap(services.ErrValidation, "jellyfin", "recommendation",
			"no matching users", nil)
	}

	seeds, err := r.collectSeeds(ctx, job, users)
	if err != nil {
		return nil, err
	}
	if len(seeds) == 0 {
		r.logger.Info("no watch history to expand",
			logging.String(logging.FieldJobID, job.ID))
		return nil, nil
	}

	return r.expandSeeds(ctx, job, seeds)
}

func (r *Resolver) resolveUsers(ctx context.Context, job *jobs.Job) ([]jellyfin.User, error) {
	callCtx, cancel := r.providerContext(ctx)
	defer cancel()
	all, err := r.history.Users(callCtx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if job.AllUsers {
		return all, nil
	}

	var matched []jellyfin.User
	for _, name := range job.Users {
		found := false
		for _, user := range all {
			if strings.EqualFold(user.Name, name) {
				matched = append(matched, user)
				found = true
				break
			}
		}
		if !found {
			r.logger.Warn("configured user not found",
				logging.String(logging.FieldJobID, job.ID),
				logging.String("user", name))
		}
	}
	return matched, nil
}

// collectSeeds gathers each user's recent watch history, deduplicated by
// title with the best recency rank kept. A single user's fetch failure is
// skipped; all users failing is fatal.
func (r *Resolver) collectSeeds(ctx context.Context, job *jobs.Job, users []jellyfin.User) ([]seed, error) {
	perUser := r.cfg.WatchedPerUser
	if perUser <= 0 {
		perUser = 10
	}

	best := make(map[int64]seed)
	var order []int64
	failures := 0
	for _, user := range users {
		items, err := r.recentlyWatched(ctx, user.ID, perUser)
		if err != nil {
			failures++
			r.logger.Warn("watch history fetch failed",
				logging.String(logging.FieldJobID, job.ID),
				logging.String("user", user.Name),
				logging.Error(err))
			continue
		}
		rank := 0
		for _, item := range items {
			mediaType, ok := media.ParseType(item.MediaType())
			if !ok || !job.MediaType.Matches(mediaType) {
				continue
			}
			id := item.TMDBID()
			if id == 0 {
				continue
			}
			entry := seed{tmdbID: id, mediaType: mediaType, title: item.Name, rank: rank}
			rank++
			existing, found := best[id]
			if !found {
				best[id] = entry
				order = append(order, id)
			} else if entry.rank < existing.rank {
				best[id] = entry
			}
		}
	}
	if failures == len(users) {
		return nil, services.Wrap(services.ErrTransient, "jellyfin", "recommendation",
			"watch history unavailable for every user", nil)
	}

	seeds := make([]seed, 0, len(order))
	for _, id := range order {
		seeds = append(seeds, best[id])
	}
	return seeds, nil
}

func (r *Resolver) recentlyWatched(ctx context.Context, userID string, limit int) ([]jellyfin.Item, error) {
	callCtx, cancel := r.providerContext(ctx)
	defer cancel()
	return r.history.RecentlyWatched(callCtx, userID, limit)
}

// expandSeeds fans similar-title queries across the worker pool. A failed
// seed is skipped and logged; every seed failing means the catalog is down
// and the execution should fail.
func (r *Resolver) expandSeeds(ctx context.Context, job *jobs.Job, seeds []seed) ([]media.Candidate, error) {
	seedIDs := make(map[media.Key]struct{}, len(seeds))
	for _, s := range seeds {
		seedIDs[media.Key{ID: s.tmdbID, MediaType: s.mediaType}] = struct{}{}
	}

	var mu sync.Mutex
	merger := newMerger()
	failures := 0

	r.eachParallel(len(seeds), func(i int) {
		s := seeds[i]
		results, err := r.similarTitles(ctx, s)
		if err != nil {
			mu.Lock()
			failures++
			mu.Unlock()
			r.logger.Warn("similar lookup failed",
				logging.String(logging.FieldJobID, job.ID),
				logging.Int64("seed_tmdb_id", s.tmdbID),
				logging.Error(err))
			return
		}
		rationale := "similar to " + s.title
		mu.Lock()
		for _, result := range results {
			candidate := candidateFromResult(result, s.mediaType, rationale)
			if _, watched := seedIDs[candidate.Key()]; watched {
				continue
			}
			merger.add(candidate, s.rank)
		}
		mu.Unlock()
	})

	if failures == len(seeds) {
		return nil, services.Wrap(services.ErrTransient, "tmdb", "recommendation",
			"similar lookup failed for every seed", nil)
	}
	return merger.sorted(), nil
}

func (r *Resolver) similarTitles(ctx context.Context, s seed) ([]tmdb.Result, error) {
	callCtx, cancel := r.providerContext(ctx)
	defer cancel()

	var resp *tmdb.Response
	var err error
	limit := r.cfg.MaxSimilarMovie
	if s.mediaType == media.TypeTV {
		limit = r.cfg.MaxSimilarTV
		resp, err = r.catalog.RecommendedTV(callCtx, s.tmdbID, 0)
	} else {
		resp, err = r.catalog.SimilarMovies(callCtx, s.tmdbID, 0)
	}
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	results := resp.Results
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

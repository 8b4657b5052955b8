package dedup

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"scout/internal/media"
	"scout/internal/services/jellyfin"
	"scout/internal/services/overseerr"
)

// Options selects which exclusion sources a job wants applied.
type Options struct {
	ExcludeDownloaded bool
	ExcludeRequested  bool
	HonorDiscovery    bool
}

// Gate filters candidates against point-in-time snapshots of the library,
// the request backlog, and the request service's discovery rules. A gate is
// built once per execution so every candidate in a run sees the same view.
type Gate struct {
	opts      Options
	library   map[int64]struct{}
	requested map[int64]struct{}
	blocked   map[int64]struct{}
	settings  *overseerr.DiscoverySettings
}

// Load builds a gate, fetching only the snapshots the options call for.
// A fetch failure is fatal: running without a requested snapshot would
// re-request everything the service already knows about.
func Load(ctx context.Context, history jellyfin.History, requester overseerr.Requester, opts Options) (*Gate, error) {
	gate := &Gate{opts: opts}

	if opts.ExcludeDownloaded && history != nil {
		items, err := history.LibraryItems(ctx)
		if err != nil {
			return nil, fmt.Errorf("load library snapshot: %w", err)
		}
		gate.library = make(map[int64]struct{}, len(items))
		for _, item := range items {
			if id := item.TMDBID(); id > 0 {
				gate.library[id] = struct{}{}
			}
		}
	}

	if opts.ExcludeRequested {
		ids, err := requester.RequestedIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("load request snapshot: %w", err)
		}
		gate.requested = ids
	}

	if opts.HonorDiscovery {
		blocked, err := requester.BlacklistedIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("load blacklist snapshot: %w", err)
		}
		gate.blocked = blocked
		settings, err := requester.GetDiscoverySettings(ctx)
		if err != nil {
			return nil, fmt.Errorf("load discovery settings: %w", err)
		}
		gate.settings = settings
	}

	return gate, nil
}

// IsNew reports whether a candidate survives every active exclusion source.
func (g *Gate) IsNew(candidate media.Candidate) bool {
	ok, _ := g.Check(candidate)
	return ok
}

// Check is IsNew with the rejection reason for logging.
func (g *Gate) Check(candidate media.Candidate) (bool, string) {
	if g.opts.ExcludeDownloaded {
		if _, found := g.library[candidate.ID]; found {
			return false, "already in library"
		}
	}
	if g.opts.ExcludeRequested {
		if _, found := g.requested[candidate.ID]; found {
			return false, "already requested"
		}
	}
	if g.opts.HonorDiscovery {
		if _, found := g.blocked[candidate.ID]; found {
			return false, "blocked by discovery settings"
		}
		if g.settings != nil && g.settings.OriginalLanguage != "" &&
			!sameBaseLanguage(g.settings.OriginalLanguage, candidate.Language) {
			return false, "outside discovery language"
		}
	}
	return true, ""
}

func sameBaseLanguage(want, got string) bool {
	if got == "" {
		return true
	}
	wantTag, errWant := language.Parse(want)
	gotTag, errGot := language.Parse(got)
	if errWant != nil || errGot != nil {
		return strings.EqualFold(want, got)
	}
	wantBase, _ := wantTag.Base()
	gotBase, _ := gotTag.Base()
	return wantBase == gotBase
}

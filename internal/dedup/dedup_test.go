package dedup_test

import (
	"context"
	"errors"
	"testing"

	"scout/internal/dedup"
	"scout/internal/media"
	"scout/internal/services/jellyfin"
	"scout/internal/services/overseerr"
)

type fakeHistory struct {
	items []jellyfin.Item
	err   error
	calls int
}

func (f *fakeHistory) Users(ctx context.Context) ([]jellyfin.User, error) { return nil, nil }

func (f *fakeHistory) RecentlyWatched(ctx context.Context, userID string, limit int) ([]jellyfin.Item, error) {
	return nil, nil
}

func (f *fakeHistory) LibraryItems(ctx context.Context) ([]jellyfin.Item, error) {
	f.calls++
	return f.items, f.err
}

type fakeRequester struct {
	requested map[int64]struct{}
	blocked   map[int64]struct{}
	settings  overseerr.DiscoverySettings
	err       error
}

func (f *fakeRequester) Submit(ctx context.Context, request overseerr.Request) error { return nil }

func (f *fakeRequester) RequestedIDs(ctx context.Context) (map[int64]struct{}, error) {
	return f.requested, f.err
}

func (f *fakeRequester) GetDiscoverySettings(ctx context.Context) (*overseerr.DiscoverySettings, error) {
	settings := f.settings
	return &settings, f.err
}

func (f *fakeRequester) BlacklistedIDs(ctx context.Context) (map[int64]struct{}, error) {
	return f.blocked, f.err
}

func libraryItem(tmdbID string) jellyfin.Item {
	return jellyfin.Item{Type: "Movie", ProviderIDs: map[string]string{"Tmdb": tmdbID}}
}

func TestGateExcludesDownloaded(t *testing.T) {
	history := &fakeHistory{items: []jellyfin.Item{libraryItem("550")}}
	gate, err := dedup.Load(context.Background(), history, &fakeRequester{}, dedup.Options{ExcludeDownloaded: true})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if gate.IsNew(media.Candidate{ID: 550, MediaType: media.TypeMovie}) {
		t.Fatal("library title should be rejected")
	}
	ok, reason := gate.Check(media.Candidate{ID: 550})
	if ok || reason != "already in library" {
		t.Fatalf("Check = %v, %q", ok, reason)
	}
	if !gate.IsNew(media.Candidate{ID: 551}) {
		t.Fatal("unknown title should pass")
	}
}

func TestGateExcludesRequested(t *testing.T) {
	requester := &fakeRequester{requested: map[int64]struct{}{1399: {}}}
	gate, err := dedup.Load(context.Background(), nil, requester, dedup.Options{ExcludeRequested: true})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gate.IsNew(media.Candidate{ID: 1399, MediaType: media.TypeTV}) {
		t.Fatal("requested title should be rejected")
	}
	if !gate.IsNew(media.Candidate{ID: 1400}) {
		t.Fatal("unrequested title should pass")
	}
}

func TestTogglesOffSkipSnapshots(t *testing.T) {
	history := &fakeHistory{items: []jellyfin.Item{libraryItem("550")}}
	requester := &fakeRequester{requested: map[int64]struct{}{550: {}}}
	gate, err := dedup.Load(context.Background(), history, requester, dedup.Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if history.calls != 0 {
		t.Fatal("library snapshot fetched with exclude_downloaded off")
	}
	if !gate.IsNew(media.Candidate{ID: 550}) {
		t.Fatal("all toggles off should pass everything")
	}
}

func TestHonorDiscoveryBlacklist(t *testing.T) {
	requester := &fakeRequester{
		blocked:  map[int64]struct{}{603: {}},
		settings: overseerr.DiscoverySettings{OriginalLanguage: "en"},
	}
	gate, err := dedup.Load(context.Background(), nil, requester, dedup.Options{HonorDiscovery: true})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	ok, reason := gate.Check(media.Candidate{ID: 603, Language: "en"})
	if ok || reason != "blocked by discovery settings" {
		t.Fatalf("Check = %v, %q", ok, reason)
	}
	ok, reason = gate.Check(media.Candidate{ID: 604, Language: "ko"})
	if ok || reason != "outside discovery language" {
		t.Fatalf("Check = %v, %q", ok, reason)
	}
	if !gate.IsNew(media.Candidate{ID: 604, Language: "en-US"}) {
		t.Fatal("matching base language should pass")
	}
	if !gate.IsNew(media.Candidate{ID: 604}) {
		t.Fatal("unknown candidate language should not be excluded")
	}
}

func TestLoadFailureIsFatal(t *testing.T) {
	requester := &fakeRequester{err: errors.New("overseerr down")}
	if _, err := dedup.Load(context.Background(), nil, requester, dedup.Options{ExcludeRequested: true}); err == nil {
		t.Fatal("snapshot failure must fail the load")
	}
}

func TestNilHistorySkipsLibrary(t *testing.T) {
	gate, err := dedup.Load(context.Background(), nil, &fakeRequester{}, dedup.Options{ExcludeDownloaded: true})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !gate.IsNew(media.Candidate{ID: 550}) {
		t.Fatal("no history provider means no library exclusions")
	}
}

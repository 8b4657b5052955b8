package jellyfin_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"scout/internal/services/jellyfin"
)

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := jellyfin.New("", "key"); err == nil {
		t.Fatal("expected error for missing url")
	}
	if _, err := jellyfin.New("http://jellyfin.test", " "); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestUsersSendsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Emby-Token") != "secret" {
			t.Fatalf("missing token header")
		}
		if r.URL.Path != "/Users" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`[{"Id":"u1","Name":"alice"},{"Id":"u2","Name":"bob"}]`))
	}))
	defer server.Close()

	client, err := jellyfin.New(server.URL, "secret")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	users, err := client.Users(context.Background())
	if err != nil {
		t.Fatalf("Users: %v", err)
	}
	if len(users) != 2 || users[0].Name != "alice" {
		t.Fatalf("unexpected users %+v", users)
	}
}

func TestUserByNameMatchesCaseInsensitively(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"Id":"u1","Name":"Alice"}]`))
	}))
	defer server.Close()

	client, err := jellyfin.New(server.URL, "secret")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	user, err := client.UserByName(context.Background(), "alice")
	if err != nil {
		t.Fatalf("UserByName: %v", err)
	}
	if user == nil || user.ID != "u1" {
		t.Fatalf("unexpected user %+v", user)
	}

	missing, err := client.UserByName(context.Background(), "carol")
	if err != nil {
		t.Fatalf("UserByName: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown name, got %+v", missing)
	}
}

func TestRecentlyWatchedQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Users/u1/Items" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("Filters") != "IsPlayed" || query.Get("SortBy") != "DatePlayed" {
			t.Fatalf("unexpected query %v", query)
		}
		if query.Get("Limit") != "5" {
			t.Fatalf("Limit = %q", query.Get("Limit"))
		}
		w.Write([]byte(`{"Items":[{"Id":"i1","Name":"Heat","Type":"Movie","ProviderIds":{"Tmdb":"949"}},{"Id":"i2","Name":"The Wire","Type":"Series","ProviderIds":{"Imdb":"tt0306414"}}],"TotalRecordCount":2}`))
	}))
	defer server.Close()

	client, err := jellyfin.New(server.URL, "secret")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	items, err := client.RecentlyWatched(context.Background(), "u1", 5)
	if err != nil {
		t.Fatalf("RecentlyWatched: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].TMDBID() != 949 || items[0].MediaType() != "movie" {
		t.Fatalf("unexpected first item %+v", items[0])
	}
	if items[1].TMDBID() != 0 || items[1].MediaType() != "tv" {
		t.Fatalf("unexpected second item %+v", items[1])
	}
}

func TestRecentlyWatchedRequiresUser(t *testing.T) {
	client, err := jellyfin.New("http://jellyfin.test", "secret")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.RecentlyWatched(context.Background(), " ", 5); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestLibraryItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Items" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"Items":[{"Id":"i1","Type":"Movie","ProviderIds":{"Tmdb":"550"}}],"TotalRecordCount":1}`))
	}))
	defer server.Close()

	client, err := jellyfin.New(server.URL, "secret")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	items, err := client.LibraryItems(context.Background())
	if err != nil {
		t.Fatalf("LibraryItems: %v", err)
	}
	if len(items) != 1 || items[0].TMDBID() != 550 {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestErrorStatusSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	client, err := jellyfin.New(server.URL, "secret")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.Users(context.Background()); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

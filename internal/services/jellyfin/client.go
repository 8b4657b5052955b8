package jellyfin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// User is a Jellyfin account visible to the server API key.
type User struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

// Item is a library entry with its TMDB cross-reference when known.
type Item struct {
	ID          string            `json:"Id"`
	Name        string            `json:"Name"`
	Type        string            `json:"Type"`
	ProviderIDs map[string]string `json:"ProviderIds"`
	UserData    *UserData         `json:"UserData,omitempty"`
}

// UserData carries per-user playback state for an item.
type UserData struct {
	Played         bool       `json:"Played"`
	LastPlayedDate *time.Time `json:"LastPlayedDate,omitempty"`
}

type itemsPayload struct {
	Items            []Item `json:"Items"`
	TotalRecordCount int    `json:"TotalRecordCount"`
}

// TMDBID extracts the TMDB provider id, or 0 when the item has none.
func (i Item) TMDBID() int64 {
	raw, ok := i.ProviderIDs["Tmdb"]
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// MediaType maps the Jellyfin item kind onto the catalog vocabulary.
func (i Item) MediaType() string {
	switch i.Type {
	case "Movie":
		return "movie"
	case "Series":
		return "tv"
	}
	return ""
}

// History defines the watch-history operations the resolver and dedup
// gate consume.
type History interface {
	Users(ctx context.Context) ([]User, error)
	RecentlyWatched(ctx context.Context, userID string, limit int) ([]Item, error)
	LibraryItems(ctx context.Context) ([]Item, error)
}

// Client provides access to the Jellyfin server API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ History = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a Jellyfin client.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("jellyfin url required")
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("jellyfin api key required")
	}
	client := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Users lists the accounts known to the server.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.get(ctx, "/Users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UserByName resolves a configured username to its account, matching
// case-insensitively. Returns nil when no account matches.
func (c *Client) UserByName(ctx context.Context, name string) (*User, error) {
	users, err := c.Users(ctx)
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		if strings.EqualFold(user.Name, name) {
			return &user, nil
		}
	}
	return nil, nil
}

// RecentlyWatched returns the user's played movies and series, most
// recently played first, capped at limit.
func (c *Client) RecentlyWatched(ctx context.Context, userID string, limit int) ([]Item, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("user id required")
	}
	if limit <= 0 {
		limit = 20
	}
	params := url.Values{}
	params.Set("Recursive", "true")
	params.Set("IncludeItemTypes", "Movie,Series")
	params.Set("Filters", "IsPlayed")
	params.Set("SortBy", "DatePlayed")
	params.Set("SortOrder", "Descending")
	params.Set("Limit", strconv.Itoa(limit))
	params.Set("Fields", "ProviderIds")

	var payload itemsPayload
	if err := c.get(ctx, "/Users/"+url.PathEscape(userID)+"/Items", params, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// LibraryItems returns every movie and series in the library. The dedup
// gate indexes these by TMDB id as the "already downloaded" set.
func (c *Client) LibraryItems(ctx context.Context) ([]Item, error) {
	params := url.Values{}
	params.Set("Recursive", "true")
	params.Set("IncludeItemTypes", "Movie,Series")
	params.Set("Fields", "ProviderIds")

	var payload itemsPayload
	if err := c.get(ctx, "/Items", params, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build jellyfin request: %w", err)
	}
	req.Header.Set("X-Emby-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute jellyfin request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jellyfin %s returned %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode jellyfin response: %w", err)
	}
	return nil
}

package tmdb

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

// Result represents a single TMDB discovery or recommendation match.
type Result struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"`
	GenreIDs         []int   `json:"genre_ids"`
	OriginalLanguage string  `json:"original_language"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int64   `json:"vote_count"`
	NumberOfSeasons  int     `json:"number_of_seasons"`
}

// DisplayTitle returns the movie title or TV name, whichever is set.
func (r Result) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// Year extracts the release year from whichever date field is populated.
func (r Result) Year() int {
	date := r.ReleaseDate
	if date == "" {
		date = r.FirstAirDate
	}
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// Response models the TMDB paginated result envelope.
type Response struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// TVDetails carries the TV-specific fields discovery results omit.
type TVDetails struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	NumberOfSeasons int    `json:"number_of_seasons"`
}

// Provider lists a single streaming service offering a title.
type Provider struct {
	ProviderID   int    `json:"provider_id"`
	ProviderName string `json:"provider_name"`
}

type providerRegion struct {
	Flatrate []Provider `json:"flatrate"`
}

type providersPayload struct {
	ID      int64                     `json:"id"`
	Results map[string]providerRegion `json:"results"`
}

// DiscoverOptions narrows a discover query. Zero values are omitted from
// the request so the provider applies no constraint.
type DiscoverOptions struct {
	Page           int
	MinRating      float64
	MinVotes       int64
	ExcludedGenres []int
	Language       string
	YearFrom       int
	YearTo         int
	Region         string
}

// Catalog defines the TMDB operations the resolver consumes.
type Catalog interface {
	DiscoverMovies(ctx context.Context, opts DiscoverOptions) (*Response, error)
	DiscoverTV(ctx context.Context, opts DiscoverOptions) (*Response, error)
	SimilarMovies(ctx context.Context, movieID int64, page int) (*Response, error)
	RecommendedTV(ctx context.Context, showID int64, page int) (*Response, error)
	GetTVDetails(ctx context.Context, showID int64) (*TVDetails, error)
	StreamingServices(ctx context.Context, mediaType string, id int64, region string) ([]string, error)
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
}

var _ Catalog = (*Client)(nil)

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

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// DiscoverMovies runs a filtered movie discovery query sorted by popularity.
func (c *Client) DiscoverMovies(ctx context.Context, opts DiscoverOptions) (*Response, error) {
	params := c.baseParams()
	params.Set("sort_by", "popularity.desc")
	params.Set("include_adult", "false")
	applyDiscoverOptions(params, opts, "primary_release_date")

	var payload Response
	if err := c.get(ctx, "/discover/movie", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DiscoverTV runs a filtered TV discovery query sorted by popularity.
func (c *Client) DiscoverTV(ctx context.Context, opts DiscoverOptions) (*Response, error) {
	params := c.baseParams()
	params.Set("sort_by", "popularity.desc")
	params.Set("include_adult", "false")
	applyDiscoverOptions(params, opts, "first_air_date")

	var payload Response
	if err := c.get(ctx, "/discover/tv", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SimilarMovies fetches titles similar to the given movie.
func (c *Client) SimilarMovies(ctx context.Context, movieID int64, page int) (*Response, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	params := c.baseParams()
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}

	var payload Response
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/similar", movieID), params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// RecommendedTV fetches shows recommended alongside the given show.
func (c *Client) RecommendedTV(ctx context.Context, showID int64, page int) (*Response, error) {
	if showID <= 0 {
		return nil, errors.New("show id must be positive")
	}
	params := c.baseParams()
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}

	var payload Response
	if err := c.get(ctx, fmt.Sprintf("/tv/%d/recommendations", showID), params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetTVDetails fetches TV show details, primarily for the season count that
// discovery results omit.
func (c *Client) GetTVDetails(ctx context.Context, showID int64) (*TVDetails, error) {
	if showID <= 0 {
		return nil, errors.New("show id must be positive")
	}
	var payload TVDetails
	if err := c.get(ctx, fmt.Sprintf("/tv/%d", showID), c.baseParams(), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// StreamingServices returns the flatrate provider names offering the title in
// the given region. An unknown region yields an empty list, not an error.
func (c *Client) StreamingServices(ctx context.Context, mediaType string, id int64, region string) ([]string, error) {
	if id <= 0 {
		return nil, errors.New("title id must be positive")
	}
	if mediaType != "movie" && mediaType != "tv" {
		return nil, fmt.Errorf("unsupported media type %q", mediaType)
	}
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		return nil, errors.New("region required")
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	var payload providersPayload
	if err := c.get(ctx, fmt.Sprintf("/%s/%d/watch/providers", mediaType, id), params, &payload); err != nil {
		return nil, err
	}

	entry, ok := payload.Results[region]
	if !ok {
		return nil, nil
	}
	names := make([]string, 0, len(entry.Flatrate))
	for _, provider := range entry.Flatrate {
		names = append(names, provider.ProviderName)
	}
	return names, nil
}

func (c *Client) baseParams() url.Values {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	return params
}

func applyDiscoverOptions(params url.Values, opts DiscoverOptions, dateField string) {
	if opts.Page > 0 {
		params.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.MinRating > 0 {
		params.Set("vote_average.gte", strconv.FormatFloat(opts.MinRating, 'f', -1, 64))
	}
	if opts.MinVotes > 0 {
		params.Set("vote_count.gte", strconv.FormatInt(opts.MinVotes, 10))
	}
	if len(opts.ExcludedGenres) > 0 {
		ids := make([]string, 0, len(opts.ExcludedGenres))
		for _, id := range opts.ExcludedGenres {
			ids = append(ids, strconv.Itoa(id))
		}
		params.Set("without_genres", strings.Join(ids, ","))
	}
	if opts.Language != "" {
		params.Set("with_original_language", opts.Language)
	}
	if opts.YearFrom > 0 {
		params.Set(dateField+".gte", fmt.Sprintf("%d-01-01", opts.YearFrom))
	}
	if opts.YearTo > 0 {
		params.Set(dateField+".lte", fmt.Sprintf("%d-12-31", opts.YearTo))
	}
	if opts.Region != "" {
		params.Set("watch_region", strings.ToUpper(opts.Region))
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb %s returned %d (latency=%v)", path, resp.StatusCode, latency)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}
	return nil
}

package overseerr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Sentinel errors for submit outcomes the delivery worker handles
// differently from plain failures.
var (
	// ErrAlreadyRequested marks a duplicate submission. The worker treats
	// it as success since the title is already on file downstream.
	ErrAlreadyRequested = errors.New("already requested")
	// ErrRateLimited marks a 429 response. The worker backs off and retries.
	ErrRateLimited = errors.New("rate limited")
)

// Request is a submission payload for a single title.
type Request struct {
	MediaType string `json:"mediaType"`
	MediaID   int64  `json:"mediaId"`
	Seasons   string `json:"seasons,omitempty"`
}

// RequestRecord is an existing request known to the service.
type RequestRecord struct {
	ID    int64 `json:"id"`
	Media struct {
		TMDBID    int64  `json:"tmdbId"`
		MediaType string `json:"mediaType"`
	} `json:"media"`
}

type requestsPayload struct {
	PageInfo struct {
		Pages   int `json:"pages"`
		Results int `json:"results"`
	} `json:"pageInfo"`
	Results []RequestRecord `json:"results"`
}

// DiscoverySettings is the subset of server-side discovery configuration
// the dedup gate honors.
type DiscoverySettings struct {
	Region           string `json:"region"`
	OriginalLanguage string `json:"originalLanguage"`
}

type blacklistPayload struct {
	PageInfo struct {
		Pages int `json:"pages"`
	} `json:"pageInfo"`
	Results []struct {
		TMDBID    int64  `json:"tmdbId"`
		MediaType string `json:"mediaType"`
	} `json:"results"`
}

// Requester defines the request-service operations consumed by the
// delivery worker and dedup gate.
type Requester interface {
	Submit(ctx context.Context, request Request) error
	RequestedIDs(ctx context.Context) (map[int64]struct{}, error)
	GetDiscoverySettings(ctx context.Context) (*DiscoverySettings, error)
	BlacklistedIDs(ctx context.Context) (map[int64]struct{}, error)
}

// Client provides access to the Overseerr API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ Requester = (*Client)(nil)

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

// WithTimeout sets the default HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New creates an Overseerr client.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("overseerr url required")
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("overseerr api key required")
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

// Submit files a download request for a single title. TV requests ask for
// all seasons.
func (c *Client) Submit(ctx context.Context, request Request) error {
	if request.MediaID <= 0 {
		return errors.New("media id must be positive")
	}
	if request.MediaType != "movie" && request.MediaType != "tv" {
		return fmt.Errorf("unsupported media type %q", request.MediaType)
	}
	if request.MediaType == "tv" && request.Seasons == "" {
		request.Seasons = "all"
	}

	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/request", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build overseerr request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute overseerr request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		return nil
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("tmdb id %d: %w", request.MediaID, ErrAlreadyRequested)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("tmdb id %d: %w", request.MediaID, ErrRateLimited)
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("overseerr submit returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
}

// RequestedIDs returns the TMDB ids of every request the service knows,
// walking all pages. The dedup gate indexes these as the "already
// requested" set.
func (c *Client) RequestedIDs(ctx context.Context) (map[int64]struct{}, error) {
	const pageSize = 100
	ids := make(map[int64]struct{})
	for skip := 0; ; skip += pageSize {
		params := url.Values{}
		params.Set("take", strconv.Itoa(pageSize))
		params.Set("skip", strconv.Itoa(skip))

		var payload requestsPayload
		if err := c.get(ctx, "/api/v1/request", params, &payload); err != nil {
			return nil, err
		}
		for _, record := range payload.Results {
			if record.Media.TMDBID > 0 {
				ids[record.Media.TMDBID] = struct{}{}
			}
		}
		if len(payload.Results) < pageSize {
			break
		}
	}
	return ids, nil
}

// GetDiscoverySettings fetches the server-side discovery configuration.
func (c *Client) GetDiscoverySettings(ctx context.Context) (*DiscoverySettings, error) {
	var settings DiscoverySettings
	if err := c.get(ctx, "/api/v1/settings/main", nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// BlacklistedIDs returns the TMDB ids the service operator has blocked
// from discovery, walking all pages.
func (c *Client) BlacklistedIDs(ctx context.Context) (map[int64]struct{}, error) {
	const pageSize = 100
	ids := make(map[int64]struct{})
	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("take", strconv.Itoa(pageSize))
		params.Set("page", strconv.Itoa(page))

		var payload blacklistPayload
		if err := c.get(ctx, "/api/v1/blacklist", params, &payload); err != nil {
			return nil, err
		}
		for _, entry := range payload.Results {
			if entry.TMDBID > 0 {
				ids[entry.TMDBID] = struct{}{}
			}
		}
		if page >= payload.PageInfo.Pages || len(payload.Results) == 0 {
			break
		}
	}
	return ids, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build overseerr request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute overseerr request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("overseerr %s returned %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode overseerr response: %w", err)
	}
	return nil
}

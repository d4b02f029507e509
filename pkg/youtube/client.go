// Package youtube is a minimal client for the playlist listing and video
// detail endpoints of the YouTube Data API v3.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// Provider limits. Both endpoints cap at 50 per call.
const (
	MaxPageSize = 50
	MaxBatchIDs = 50
)

// Sentinel errors for provider API responses.
var (
	// ErrNotFound is returned when the playlist does not exist.
	ErrNotFound = errors.New("playlist not found")

	// ErrQuotaExceeded is returned when the API rejects the key or quota.
	ErrQuotaExceeded = errors.New("quota exceeded or key rejected")

	// ErrBadResponse is returned when a response does not match the
	// expected shape. Callers treat this as fatal.
	ErrBadResponse = errors.New("malformed provider response")
)

// Client is a YouTube Data API v3 client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = log.With("component", "youtube")
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// New creates a new client.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PlaylistPage fetches one page of playlist entries. pageSize must be between
// 1 and MaxPageSize; pageToken is empty for the first page.
func (c *Client) PlaylistPage(ctx context.Context, playlistID string, pageSize int, pageToken string) (*PlaylistPage, error) {
	if pageSize < 1 || pageSize > MaxPageSize {
		return nil, fmt.Errorf("page size %d out of range [1,%d]", pageSize, MaxPageSize)
	}

	q := url.Values{}
	q.Set("part", "snippet,contentDetails")
	q.Set("playlistId", playlistID)
	q.Set("maxResults", strconv.Itoa(pageSize))
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	var resp playlistItemsResponse
	if err := c.get(ctx, "/playlistItems", q, &resp); err != nil {
		return nil, err
	}

	page := &PlaylistPage{
		Entries:       make([]Entry, 0, len(resp.Items)),
		NextPageToken: resp.NextPageToken,
	}
	for _, raw := range resp.Items {
		entry, err := parseEntry(raw)
		if err != nil {
			return nil, err
		}
		page.Entries = append(page.Entries, entry)
	}

	if c.log != nil {
		c.log.Debug("playlist page fetched", "playlist", playlistID, "entries", len(page.Entries), "more", page.NextPageToken != "")
	}
	return page, nil
}

// VideoDetails fetches duration details for up to MaxBatchIDs videos.
// Videos removed between listing and lookup are simply absent from the result.
func (c *Client) VideoDetails(ctx context.Context, ids []string) ([]VideoDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxBatchIDs {
		return nil, fmt.Errorf("batch of %d ids exceeds limit %d", len(ids), MaxBatchIDs)
	}

	q := url.Values{}
	q.Set("part", "contentDetails")
	q.Set("id", strings.Join(ids, ","))

	var resp videosResponse
	if err := c.get(ctx, "/videos", q, &resp); err != nil {
		return nil, err
	}

	details := make([]VideoDetail, 0, len(resp.Items))
	for _, raw := range resp.Items {
		d, err := parseVideoDetail(raw)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, nil
}

// get performs a rate-limited GET against an API endpoint and decodes the body.
func (c *Client) get(ctx context.Context, endpoint string, q url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	q.Set("key", c.apiKey)
	reqURL := c.baseURL + endpoint + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusForbidden, http.StatusTooManyRequests:
		return ErrQuotaExceeded
	default:
		return fmt.Errorf("provider API error: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrBadResponse, endpoint, err)
	}
	return nil
}

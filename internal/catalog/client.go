// Package catalog talks to the Kinopoisk movie API and normalizes its
// responses into types.MovieSummary and types.MovieDetails.
package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/user/kinobot/internal/types"
)

const (
	DefaultBaseURL = "https://api.kinopoisk.dev/v1.4"
	DefaultTimeout = 40 * time.Second

	genrePageSize = 20
)

// Client issues catalog requests with per-attempt timeouts and timeout retries.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
	retry   *RetryPolicy
}

// Option configures a Client.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout sets the connect+read timeout applied to each attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithRetryPolicy(p *RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is
// overwritten with the per-attempt timeout unless already set.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// New creates a catalog client authenticated with apiKey.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		timeout: DefaultTimeout,
		retry:   DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{
			Transport: &http.Transport{
				Proxy:       http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{Timeout: c.timeout}).DialContext,
			},
		}
	}
	if c.client.Timeout == 0 {
		c.client.Timeout = c.timeout
	}
	return c
}

var _ types.Catalog = (*Client)(nil)

// FetchByGenre returns up to limit top-rated movies of the genre.
func (c *Client) FetchByGenre(ctx context.Context, genre string, limit int) ([]types.MovieSummary, error) {
	params := url.Values{}
	params.Set("page", "1")
	params.Set("limit", strconv.Itoa(genrePageSize))
	params.Set("type", "movie")
	params.Set("genres.name", genre)
	params.Set("sortField", "rating.kp")
	params.Set("sortType", "-1")
	params.Add("notNullFields", "poster.url")
	params.Add("notNullFields", "name")

	body, err := c.get(ctx, "/movie", params)
	if err != nil {
		return nil, err
	}
	return normalizeDocs(body, limit), nil
}

// FetchRandom returns one random movie, or nil when the upstream record
// could not be normalized.
func (c *Client) FetchRandom(ctx context.Context) (*types.MovieSummary, error) {
	params := url.Values{}
	params.Add("notNullFields", "poster.url")
	params.Add("notNullFields", "name")

	body, err := c.get(ctx, "/movie/random", params)
	if err != nil {
		return nil, err
	}
	m, ok := NormalizeSummary(body)
	if !ok {
		return nil, nil
	}
	return &m, nil
}

// SearchByName returns up to limit movies matching the query text.
func (c *Client) SearchByName(ctx context.Context, query string, limit int) ([]types.MovieSummary, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", "1")
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "/movie/search", params)
	if err != nil {
		return nil, err
	}
	return normalizeDocs(body, limit), nil
}

// FetchDetails returns credits and runtime for a movie, or nil when the
// response could not be normalized.
func (c *Client) FetchDetails(ctx context.Context, id int) (*types.MovieDetails, error) {
	body, err := c.get(ctx, fmt.Sprintf("/movie/%d", id), nil)
	if err != nil {
		return nil, err
	}
	d, ok := NormalizeDetails(id, body)
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return c.retry.Execute(ctx, func(attempt int) attemptResult {
		res := c.attempt(ctx, u)
		c.logAttempt(path, params, attempt, res)
		return res
	})
}

func (c *Client) attempt(ctx context.Context, u string) attemptResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fatalResult(&TransportError{Err: fmt.Errorf("create request: %w", err)})
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return classifyTransport(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return fatalResult(&StatusError{StatusCode: resp.StatusCode, Body: string(body)})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransport(ctx, err)
	}
	return okResult(body)
}

func (c *Client) logAttempt(path string, params url.Values, attempt int, res attemptResult) {
	switch res.outcome {
	case outcomeOK:
		slog.Debug("catalog request ok", "method", http.MethodGet, "path", path, "params", params.Encode(), "attempt", attempt)
	case outcomeRetryable:
		slog.Warn("catalog read timeout", "method", http.MethodGet, "path", path, "params", params.Encode(), "attempt", attempt, "error", res.err)
	case outcomeFatal:
		slog.Error("catalog request failed", "method", http.MethodGet, "path", path, "params", params.Encode(), "attempt", attempt, "error", res.err)
	}
}

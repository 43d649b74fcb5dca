package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/reelscout/reelscout/internal/observability"
	"github.com/reelscout/reelscout/internal/output"
	"github.com/reelscout/reelscout/internal/version"
)

// DefaultBaseURL is the TMDB v3 API root.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// Options configures a Client.
type Options struct {
	BaseURL      string
	Token        string // v4 read access token, sent as a bearer token
	Language     string
	IncludeAdult bool
	HTTPClient   *http.Client
	Hooks        observability.Hooks
}

// Client is an HTTP client for the TMDB movie endpoints.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	token        string
	language     string
	includeAdult bool
	hooks        observability.Hooks
}

// NewClient creates a new TMDB client.
func NewClient(opts Options) *Client {
	c := &Client{
		httpClient:   opts.HTTPClient,
		baseURL:      strings.TrimSuffix(opts.BaseURL, "/"),
		token:        opts.Token,
		language:     opts.Language,
		includeAdult: opts.IncludeAdult,
		hooks:        opts.Hooks,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.hooks == nil {
		c.hooks = observability.NopHooks{}
	}
	return c
}

// FetchMovies searches when query is non-blank and falls back to the
// popularity-sorted discover listing otherwise.
func (c *Client) FetchMovies(ctx context.Context, query string) ([]Movie, error) {
	if strings.TrimSpace(query) == "" {
		return c.DiscoverMovies(ctx)
	}
	return c.SearchMovies(ctx, query)
}

// SearchMovies returns the first page of movies matching query.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]Movie, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", strconv.FormatBool(c.includeAdult))
	return c.list(ctx, "SearchMovies", "/search/movie", params)
}

// DiscoverMovies returns the first page of movies sorted by popularity.
func (c *Client) DiscoverMovies(ctx context.Context) ([]Movie, error) {
	params := url.Values{}
	params.Set("sort_by", "popularity.desc")
	params.Set("include_adult", strconv.FormatBool(c.includeAdult))
	return c.list(ctx, "DiscoverMovies", "/discover/movie", params)
}

func (c *Client) list(ctx context.Context, operation, path string, params url.Values) (movies []Movie, err error) {
	op := observability.OperationInfo{Service: "TMDB", Operation: operation}
	start := time.Now()
	ctx = c.hooks.OnOperationStart(ctx, op)
	defer func() {
		c.hooks.OnOperationEnd(ctx, op, err, time.Since(start))
	}()

	if c.language != "" {
		params.Set("language", c.language)
	}
	params.Set("page", "1")

	body, err := c.get(ctx, c.baseURL+path+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var p page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if p.Results == nil {
		p.Results = []Movie{}
	}
	return p.Results, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	if c.token == "" {
		return nil, output.ErrAuth("No TMDB API token configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")

	info := observability.RequestInfo{Method: req.Method, URL: rawURL}
	reqCtx := c.hooks.OnRequestStart(ctx, info)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.hooks.OnRequestEnd(reqCtx, info, observability.RequestResult{Duration: time.Since(start), Error: err})
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, output.ErrNetwork(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err == nil && len(body) > maxResponseBytes {
		err = fmt.Errorf("response exceeds %d bytes", maxResponseBytes)
	}
	c.hooks.OnRequestEnd(reqCtx, info, observability.RequestResult{
		StatusCode: resp.StatusCode,
		Duration:   time.Since(start),
		Error:      err,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, statusError(resp, body)
}

// statusError maps a non-2xx response onto the CLI error taxonomy.
func statusError(resp *http.Response, body []byte) error {
	msg := "Failed to fetch movies: " + statusText(resp)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return output.ErrAuth(msg)
	case http.StatusForbidden:
		return output.ErrForbidden(msg)
	case http.StatusNotFound:
		return output.ErrNotFound("endpoint", resp.Request.URL.Path)
	case http.StatusTooManyRequests:
		return output.ErrRateLimit(parseRetryAfter(resp.Header.Get("Retry-After")))
	}

	// TMDB error bodies carry {"status_code": n, "status_message": "..."}
	var apiErr struct {
		StatusMessage string `json:"status_message"`
	}
	e := output.ErrAPI(resp.StatusCode, msg)
	if json.Unmarshal(body, &apiErr) == nil && apiErr.StatusMessage != "" {
		e.Hint = apiErr.StatusMessage
	}
	return e
}

// statusText returns the reason phrase, e.g. "Unauthorized".
func statusText(resp *http.Response) string {
	if _, text, ok := strings.Cut(resp.Status, " "); ok && text != "" {
		return text
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return strconv.Itoa(resp.StatusCode)
}

// parseRetryAfter parses the Retry-After header value.
func parseRetryAfter(header string) int {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return seconds
	}
	return 0
}

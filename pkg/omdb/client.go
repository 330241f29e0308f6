package omdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://www.omdbapi.com"

// NoResultsError is returned when OMDb answers the call but reports no
// matches (Response "False"). It carries the provider's own message,
// e.g. "Movie not found!".
type NoResultsError struct {
	Message string
}

func (e *NoResultsError) Error() string { return e.Message }

// TransientError wraps transport-level failures: connection errors,
// timeouts, and 5xx responses. Callers may retry these.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "omdb unreachable: " + e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// Client is an OMDb API client.
type Client struct {
	apiKey        string
	baseURL       string
	httpClient    *http.Client
	limiter       *rate.Limiter
	detailRetries int
	log           *slog.Logger
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

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRateLimit paces outbound calls to at most rps requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithDetailRetries sets how many times a failed detail call is retried.
func WithDetailRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.detailRetries = n
		}
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = log.With("component", "omdb")
	}
}

// NewClient creates a new OMDb client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		detailRetries: 2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search queries OMDb for titles matching term.
// Returns NoResultsError when the provider reports no matches and
// TransientError on transport failures. Search is never retried; a
// failed batch query surfaces immediately.
func (c *Client) Search(ctx context.Context, term string) ([]SearchResult, error) {
	query := url.Values{}
	query.Set("s", term)
	query.Set("apikey", c.apiKey)

	var env searchResponse
	if err := c.get(ctx, query, &env); err != nil {
		return nil, err
	}

	if env.Response == "False" {
		return nil, &NoResultsError{Message: env.Error}
	}

	if c.log != nil {
		c.log.Debug("search complete", "term", term, "results", len(env.Search))
	}
	return env.Search, nil
}

// Detail fetches full metadata for one title by its IMDb id.
// Transient failures are retried up to the configured retry count with
// exponential backoff before the last error is returned.
func (c *Client) Detail(ctx context.Context, imdbID string) (*Movie, error) {
	var lastErr error
	backoff := 250 * time.Millisecond

	for attempt := 0; attempt <= c.detailRetries; attempt++ {
		if attempt > 0 {
			if c.log != nil {
				c.log.Debug("retrying detail fetch", "imdb_id", imdbID, "attempt", attempt)
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		movie, err := c.detail(ctx, imdbID)
		if err == nil {
			return movie, nil
		}
		lastErr = err

		// Only transport-level failures are worth retrying.
		if _, ok := err.(*TransientError); !ok {
			break
		}
	}

	return nil, lastErr
}

func (c *Client) detail(ctx context.Context, imdbID string) (*Movie, error) {
	query := url.Values{}
	query.Set("i", imdbID)
	query.Set("plot", "full")
	query.Set("apikey", c.apiKey)

	var movie Movie
	if err := c.get(ctx, query, &movie); err != nil {
		return nil, err
	}

	if movie.Response == "False" {
		return nil, &NoResultsError{Message: movie.Error}
	}
	return &movie, nil
}

// get performs one paced GET against the OMDb API and decodes the body.
func (c *Client) get(ctx context.Context, query url.Values, result any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransientError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		return &TransientError{Err: fmt.Errorf("OMDb API error: %s", resp.Status)}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("OMDb API error: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

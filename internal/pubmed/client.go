// Package pubmed is a rate-limited, cached client for the NCBI
// E-utilities PubMed endpoints.
package pubmed

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gladstone-institutes/bibliometrics/internal/cache"
)

const (
	// BaseURL is the E-utilities base URL.
	BaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// RateLimit is the NCBI limit without an API key, in requests per second.
	RateLimit = 3.0
	// KeyedRateLimit applies when an API key is set.
	KeyedRateLimit = 10.0

	// FetchBatch is the number of PMIDs per efetch request.
	FetchBatch = 100
	// CitMatchBatch is the number of citations per ecitmatch request.
	CitMatchBatch = 50
	// MaxSearchResults caps esearch result lists.
	MaxSearchResults = 100000
)

// Client is a rate-limited HTTP client for PubMed.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *cache.Cache
	log        *zap.Logger

	apiKey  string
	tool    string
	email   string
	baseURL string
	rate    float64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the NCBI API key and raises the default rate limit.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithCache stores responses in ch.
func WithCache(ch *cache.Cache) ClientOption {
	return func(c *Client) {
		c.cache = ch
	}
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// WithRate overrides the requests-per-second limit.
func WithRate(perSecond float64) ClientOption {
	return func(c *Client) {
		c.rate = perSecond
	}
}

// WithIdentity sets the tool and email parameters NCBI asks clients to send.
func WithIdentity(tool, email string) ClientOption {
	return func(c *Client) {
		c.tool = tool
		c.email = email
	}
}

// NewClient creates a new PubMed client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        zap.NewNop(),
		baseURL:    BaseURL,
		tool:       "litnet",
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.rate <= 0 {
		c.rate = RateLimit
		if c.apiKey != "" {
			c.rate = KeyedRateLimit
		}
	}
	c.limiter = rate.NewLimiter(rate.Limit(c.rate), 1)
	return c
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response, endpoint string) error {
	switch {
	case resp.StatusCode == 401 || resp.StatusCode == 403:
		return errors.Wrapf(ErrAuthError, "status %d", resp.StatusCode)
	case resp.StatusCode == 429:
		return errors.Wrapf(ErrRateLimited, "status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return &APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Message:    http.StatusText(resp.StatusCode),
		}
	}
	return nil
}

// get performs a GET against an E-utilities endpoint, serving repeated
// requests from the cache. The API key is not part of the cache key.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	key := cache.Key("pubmed", endpoint, params.Encode())
	return c.cache.Fetch(ctx, key, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "rate limiter")
		}

		q := url.Values{}
		for k, v := range params {
			q[k] = v
		}
		if c.apiKey != "" {
			q.Set("api_key", c.apiKey)
		}
		if c.tool != "" {
			q.Set("tool", c.tool)
		}
		if c.email != "" {
			q.Set("email", c.email)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+q.Encode(), nil)
		if err != nil {
			return nil, errors.Wrap(err, "creating request")
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, errors.Wrapf(ErrNetworkError, "%s: %v", endpoint, err)
		}
		defer resp.Body.Close()

		c.log.Debug("pubmed request",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", time.Since(start)))

		if err := checkHTTPErrors(resp, endpoint); err != nil {
			return nil, err
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Wrapf(ErrNetworkError, "reading %s response: %v", endpoint, err)
		}
		return body, nil
	})
}

// batches splits items into consecutive slices of at most n.
func batches[T any](items []T, n int) [][]T {
	var out [][]T
	for lo := 0; lo < len(items); lo += n {
		hi := lo + n
		if hi > len(items) {
			hi = len(items)
		}
		out = append(out, items[lo:hi])
	}
	return out
}

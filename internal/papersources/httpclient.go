package papersources

import (
	"net/http"
	"path"
	"strconv"
	"time"
)

// HTTPClientConfig configures the HTTP client.
type HTTPClientConfig struct {
	// Source names the upstream service in metrics, e.g. "semantic_scholar".
	Source string

	// Timeout is the request timeout for HTTP operations.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// APIKey is an optional API key. When empty the key header is not sent.
	APIKey string

	// APIKeyHeader is the header name for the API key (e.g. "x-api-key").
	APIKeyHeader string
}

// RequestObserver receives the outcome of every outbound request.
type RequestObserver interface {
	RecordSourceRequest(source, endpoint, status string, duration time.Duration)
}

// HTTPClient wraps http.Client with rate limiting and auth headers.
// Failed requests are never retried.
// It is safe for concurrent use.
type HTTPClient struct {
	client      *http.Client
	rateLimiter *RateLimiter
	observer    RequestObserver
	config      HTTPClientConfig
}

// NewHTTPClient creates a new HTTP client with rate limiting.
// observer may be nil.
func NewHTTPClient(cfg HTTPClientConfig, observer RequestObserver) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 1
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = 1
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Helixir-ResearchTimeline/1.0"
	}
	if cfg.Source == "" {
		cfg.Source = "unknown"
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.BurstSize),
		observer:    observer,
		config:      cfg,
	}
}

// Do executes an HTTP request after waiting on the rate limiter.
// It sets the User-Agent header and, when an API key is configured, the key header.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if c.config.APIKey != "" && c.config.APIKeyHeader != "" {
		req.Header.Set(c.config.APIKeyHeader, c.config.APIKey)
	}

	if err := c.rateLimiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	c.observe(req, resp, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *HTTPClient) observe(req *http.Request, resp *http.Response, err error, d time.Duration) {
	if c.observer == nil {
		return
	}
	status := "error"
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	c.observer.RecordSourceRequest(c.config.Source, path.Base(req.URL.Path), status, d)
}

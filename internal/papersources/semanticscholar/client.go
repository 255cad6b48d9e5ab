package semanticscholar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/helixir/research-timeline-service/internal/domain"
	"github.com/helixir/research-timeline-service/internal/papersources"
)

const (
	// DefaultBaseURL is the default base URL for the Semantic Scholar Graph API.
	DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 1

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxBatchSize is the largest id set the batch endpoint accepts.
	MaxBatchSize = 500

	// PaperURLPrefix is used to build a paper URL when the API returns none.
	PaperURLPrefix = "https://www.semanticscholar.org/paper/"

	// apiKeyHeader is the header name for the Semantic Scholar API key.
	apiKeyHeader = "x-api-key"

	searchFields = "paperId,title,year,citationCount"
	batchFields  = "paperId,title,year,venue,abstract,citationCount,authors,url"
	searchSort   = "citationCount:desc"

	// metricsSource labels requests in metrics.
	metricsSource = "semantic_scholar"

	// sourceName is the human-readable name for this source.
	sourceName = "Semantic Scholar"
)

// Config contains configuration options for the Semantic Scholar client.
type Config struct {
	// BaseURL is the base URL for the API.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// APIKey is the optional API key. The key header is sent only when set.
	APIKey string

	// Timeout is the HTTP request timeout.
	// Defaults to DefaultTimeout if zero.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	// Defaults to DefaultRateLimit if zero.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	// Defaults to DefaultBurstSize if zero.
	BurstSize int
}

// Client talks to the Semantic Scholar bulk search and batch endpoints.
type Client struct {
	httpClient *papersources.HTTPClient
	config     Config
}

// Compile-time checks that Client satisfies the pipeline interfaces.
var (
	_ papersources.CandidateSearcher = (*Client)(nil)
	_ papersources.PaperFetcher      = (*Client)(nil)
)

// NewClient creates a new Semantic Scholar client with the given configuration.
// If httpClient is nil, a new one is created from the configuration; observer
// is only used in that case and may be nil.
func NewClient(cfg Config, httpClient *papersources.HTTPClient, observer papersources.RequestObserver) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = DefaultBurstSize
	}

	if httpClient == nil {
		httpClient = papersources.NewHTTPClient(papersources.HTTPClientConfig{
			Source:       metricsSource,
			Timeout:      cfg.Timeout,
			RateLimit:    cfg.RateLimit,
			BurstSize:    cfg.BurstSize,
			APIKey:       cfg.APIKey,
			APIKeyHeader: apiKeyHeader,
		}, observer)
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
	}
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// BulkSearch fetches one page of citation-sorted results for query.
// An empty token requests the first page.
func (c *Client) BulkSearch(ctx context.Context, query, token string) (*BulkSearchPage, error) {
	searchURL, err := c.buildSearchURL(query, token)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewUpstreamError(sourceName, 0, "bulk search request failed", err)
	}
	defer resp.Body.Close()

	if err := c.handleErrorResponse(resp); err != nil {
		return nil, err
	}

	// Limit body to 10MB to prevent resource exhaustion.
	var page BulkSearchPage
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&page); err != nil {
		return nil, domain.NewUpstreamError(sourceName, resp.StatusCode, "decoding bulk search response", err)
	}
	return &page, nil
}

// SearchCandidates runs BulkSearch and converts the page to domain candidates.
func (c *Client) SearchCandidates(ctx context.Context, query, token string) (*papersources.CandidatePage, error) {
	page, err := c.BulkSearch(ctx, query, token)
	if err != nil {
		return nil, err
	}
	return &papersources.CandidatePage{
		Candidates: convertHits(page.Data),
		Token:      page.Token,
		Total:      page.Total,
	}, nil
}

// Batch fetches full metadata for ids in a single call. Null entries, returned
// for unknown ids, are dropped.
func (c *Client) Batch(ctx context.Context, ids []string) ([]PaperResult, error) {
	if len(ids) > MaxBatchSize {
		return nil, fmt.Errorf("batch of %d ids exceeds limit of %d", len(ids), MaxBatchSize)
	}

	batchURL, err := c.buildBatchURL()
	if err != nil {
		return nil, fmt.Errorf("building batch URL: %w", err)
	}

	body, err := json.Marshal(batchRequest{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("encoding batch request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, batchURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewUpstreamError(sourceName, 0, "batch request failed", err)
	}
	defer resp.Body.Close()

	if err := c.handleErrorResponse(resp); err != nil {
		return nil, err
	}

	var raw []*PaperResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&raw); err != nil {
		return nil, domain.NewUpstreamError(sourceName, resp.StatusCode, "decoding batch response", err)
	}

	results := make([]PaperResult, 0, len(raw))
	for _, r := range raw {
		if r == nil {
			continue
		}
		results = append(results, *r)
	}
	return results, nil
}

// FetchPapers runs Batch and normalises the results to domain papers.
func (c *Client) FetchPapers(ctx context.Context, ids []string) ([]domain.HydratedPaper, error) {
	results, err := c.Batch(ctx, ids)
	if err != nil {
		return nil, err
	}
	papers := make([]domain.HydratedPaper, 0, len(results))
	for _, r := range results {
		papers = append(papers, convertToPaper(r))
	}
	return papers, nil
}

func (c *Client) buildSearchURL(query, token string) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	searchURL := baseURL.JoinPath("paper", "search", "bulk")

	q := searchURL.Query()
	q.Set("query", query)
	q.Set("sort", searchSort)
	q.Set("fields", searchFields)
	if token != "" {
		q.Set("token", token)
	}

	searchURL.RawQuery = q.Encode()
	return searchURL.String(), nil
}

func (c *Client) buildBatchURL() (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	batchURL := baseURL.JoinPath("paper", "batch")
	q := batchURL.Query()
	q.Set("fields", batchFields)
	batchURL.RawQuery = q.Encode()
	return batchURL.String(), nil
}

// handleErrorResponse converts non-2xx responses into upstream errors.
func (c *Client) handleErrorResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Read the error body (limit to 1MB to prevent resource exhaustion)
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.NewUpstreamError(sourceName, resp.StatusCode, "failed to read error response", err)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		message := errResp.Error
		if message == "" {
			message = errResp.Message
		}
		if message == "" {
			message = string(body)
		}
		return domain.NewUpstreamError(sourceName, resp.StatusCode, message, nil)
	}

	return domain.NewUpstreamError(sourceName, resp.StatusCode, string(body), nil)
}

// convertHits converts search hits to candidates, dropping hits without an id.
func convertHits(hits []SearchHit) []domain.Candidate {
	candidates := make([]domain.Candidate, 0, len(hits))
	for _, h := range hits {
		if h.PaperID == "" {
			continue
		}
		c := domain.Candidate{
			ID:    h.PaperID,
			Title: h.Title,
			Year:  h.Year.Int(),
		}
		if h.CitationCount != nil {
			c.CitationCount = *h.CitationCount
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// convertToPaper normalises a batch result. Missing year and venue stay nil;
// other missing fields take their zero value, and the URL falls back to the
// paper's Semantic Scholar page.
func convertToPaper(r PaperResult) domain.HydratedPaper {
	paper := domain.HydratedPaper{
		ID:      r.PaperID,
		Year:    r.Year.Int(),
		Venue:   r.Venue,
		Authors: convertAuthors(r.Authors),
	}
	if r.Title != nil {
		paper.Title = *r.Title
	}
	if r.Abstract != nil {
		paper.Abstract = *r.Abstract
	}
	if r.CitationCount != nil {
		paper.CitationCount = *r.CitationCount
	}
	if r.URL != nil && *r.URL != "" {
		paper.URL = *r.URL
	} else {
		paper.URL = PaperURLPrefix + r.PaperID
	}
	return paper
}

func convertAuthors(apiAuthors []Author) []string {
	authors := make([]string, 0, len(apiAuthors))
	for _, a := range apiAuthors {
		authors = append(authors, a.Name)
	}
	return authors
}

package pubmed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/scientist-search-service/internal/domain"
	"github.com/helixir/scientist-search-service/internal/observability"
	"github.com/helixir/scientist-search-service/internal/papersources"
)

const (
	// DefaultBaseURL is the base URL for NCBI E-utilities API.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultRateLimit is the rate limit without an API key (3 requests/second).
	// With an API key, the limit increases to 10 requests/second.
	DefaultRateLimit = 3.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxResultsLimit is the maximum results allowed per request by the API.
	MaxResultsLimit = 10000

	// maxResponseBytes bounds how much of an upstream body is read.
	maxResponseBytes = 10 << 20

	// sourceName is the human-readable name for this source.
	sourceName = "PubMed"

	// metricsSource labels upstream metrics.
	metricsSource = "pubmed"

	endpointSearch = "esearch"
	endpointFetch  = "efetch"
)

// Config holds the configuration for the PubMed client.
type Config struct {
	// BaseURL is the base URL for the E-utilities API.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// APIKey is the NCBI API key for higher rate limits. Optional.
	APIKey string

	// Tool and Email identify the caller to NCBI. Both are optional.
	Tool  string
	Email string

	// Timeout is the request timeout.
	// Defaults to DefaultTimeout if zero.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	// Defaults to DefaultRateLimit (3 req/sec) if zero.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	// Defaults to DefaultBurstSize if zero.
	BurstSize int

	// MaxRetries is the number of extra attempts on transient failures. Zero, the
	// default, surfaces every failure immediately.
	MaxRetries int
}

// applyDefaults applies default values to the config.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
}

// Client implements papersources.DocumentSource for PubMed.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// Compile-time check that Client implements DocumentSource.
var _ papersources.DocumentSource = (*Client)(nil)

// New creates a new PubMed client with the given configuration.
// metrics may be nil.
func New(cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Client {
	cfg.applyDefaults()

	httpCfg := papersources.HTTPClientConfig{
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		BurstSize:  cfg.BurstSize,
		MaxRetries: cfg.MaxRetries,
	}

	return NewWithHTTPClient(cfg, papersources.NewHTTPClient(httpCfg), logger, metrics)
}

// NewWithHTTPClient creates a new PubMed client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient, logger zerolog.Logger, metrics *observability.Metrics) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "pubmed-client").Logger(),
		metrics:    metrics,
	}
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// SearchIDs resolves term to at most limit PMIDs starting at offset.
// No matches is an empty slice, not an error.
func (c *Client) SearchIDs(ctx context.Context, term string, limit, offset int) ([]string, error) {
	if limit <= 0 {
		return nil, domain.NewValidationError("limit", "must be positive")
	}
	if offset < 0 {
		return nil, domain.NewValidationError("offset", "must not be negative")
	}
	if limit > MaxResultsLimit {
		limit = MaxResultsLimit
	}

	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("term", term)
	q.Set("retmax", strconv.Itoa(limit))
	q.Set("retstart", strconv.Itoa(offset))
	q.Set("retmode", "json")

	body, err := c.get(ctx, endpointSearch, "/esearch.fcgi", q)
	if err != nil {
		return nil, err
	}

	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.metrics.RecordUpstreamRequestFailed(metricsSource, endpointSearch, "malformed")
		return nil, domain.NewUpstreamError(endpointSearch, 0, "malformed response", err)
	}
	if resp.Error != "" {
		c.metrics.RecordUpstreamRequestFailed(metricsSource, endpointSearch, "malformed")
		return nil, domain.NewUpstreamError(endpointSearch, 0, resp.Error, nil)
	}
	if resp.Result == nil {
		c.metrics.RecordUpstreamRequestFailed(metricsSource, endpointSearch, "malformed")
		return nil, domain.NewUpstreamError(endpointSearch, 0, "missing esearchresult", nil)
	}
	if resp.Result.Error != "" {
		c.metrics.RecordUpstreamRequestFailed(metricsSource, endpointSearch, "malformed")
		return nil, domain.NewUpstreamError(endpointSearch, 0, resp.Result.Error, nil)
	}

	ids := make([]string, 0, len(resp.Result.IDList))
	for _, id := range resp.Result.IDList {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	event := c.logger.Info().
		Str("term", term).
		Int("offset", offset).
		Int("limit", limit).
		Int("id_count", len(ids))
	if resp.Result.ErrorList != nil && len(resp.Result.ErrorList.PhrasesNotFound) > 0 {
		event = event.Strs("phrases_not_found", resp.Result.ErrorList.PhrasesNotFound)
	}
	event.Msg("pubmed search completed")

	return ids, nil
}

// FetchDocuments retrieves the records for ids in one batched request, in
// upstream order. An empty ids returns an empty slice without a request.
func (c *Client) FetchDocuments(ctx context.Context, ids []string) ([]domain.Document, error) {
	if len(ids) == 0 {
		return []domain.Document{}, nil
	}

	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("id", strings.Join(ids, ","))
	q.Set("retmode", "xml")
	q.Set("rettype", "abstract")

	body, err := c.get(ctx, endpointFetch, "/efetch.fcgi", q)
	if err != nil {
		return nil, err
	}

	docs, err := ParseArticleSet(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	c.metrics.RecordDocumentsFetched(len(docs))
	c.logger.Info().
		Int("requested", len(ids)).
		Int("parsed", len(docs)).
		Msg("pubmed fetch completed")

	return docs, nil
}

// get performs one GET against an E-utilities endpoint and returns the body of
// a 200 response. Every failure is an *domain.UpstreamError.
func (c *Client) get(ctx context.Context, endpoint, path string, q url.Values) ([]byte, error) {
	if c.config.APIKey != "" {
		q.Set("api_key", c.config.APIKey)
	}
	if c.config.Tool != "" {
		q.Set("tool", c.config.Tool)
	}
	if c.config.Email != "" {
		q.Set("email", c.config.Email)
	}

	u := c.config.BaseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		c.metrics.RecordUpstreamRequestFailed(metricsSource, endpoint, "request")
		return nil, domain.NewUpstreamError(endpoint, 0, "failed to create request", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		errType := classifyTransportError(err)
		c.metrics.RecordUpstreamRequestFailed(metricsSource, endpoint, errType)
		return nil, domain.NewUpstreamError(endpoint, 0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.metrics.RecordUpstreamRequestFailed(metricsSource, endpoint, "status")
		return nil, domain.NewUpstreamError(endpoint, resp.StatusCode, strings.TrimSpace(string(snippet)), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		errType := classifyTransportError(err)
		c.metrics.RecordUpstreamRequestFailed(metricsSource, endpoint, errType)
		return nil, domain.NewUpstreamError(endpoint, 0, "failed to read response", err)
	}

	c.metrics.RecordUpstreamRequest(metricsSource, endpoint, time.Since(start).Seconds())
	return body, nil
}

// classifyTransportError maps a transport failure to a metrics label.
func classifyTransportError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "timeout"
		}
		return "transport"
	}
}

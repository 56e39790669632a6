// Package serper implements the external web search gateway backed by
// the Serper Google Search API.
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/turtacn/EntityRisk-Intelligence/internal/config"
	"github.com/turtacn/EntityRisk-Intelligence/internal/domain/search"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

const (
	defaultBaseURL = "https://google.serper.dev/search"
	defaultTimeout = 30 * time.Second

	// maxResponseBytes caps how much of the API response is read.
	maxResponseBytes = 4 * 1024 * 1024
)

// Client calls the Serper search API and maps its organic results onto
// bounded domain results.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
	metrics    *prometheus.AppMetrics
}

type ClientOption func(*Client)

func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = url }
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records per-call gateway metrics under source "serper".
func WithMetrics(m *prometheus.AppMetrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

func NewClient(cfg config.SerperConfig, log logging.Logger, opts ...ClientOption) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "serper api key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type searchRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type organicResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

type searchResponse struct {
	Organic []organicResult `json:"organic"`
}

// Search runs the query and returns at most num bounded results. Title,
// URL and snippet are truncated to the domain bounds before anything
// downstream sees them.
func (c *Client) Search(ctx context.Context, query string, num int) ([]search.Result, error) {
	start := time.Now()
	results, err := c.search(ctx, query, num)
	if c.metrics != nil {
		prometheus.RecordSearch(c.metrics, "serper", len(results), time.Since(start), err)
	}
	return results, err
}

func (c *Client) search(ctx context.Context, query string, num int) ([]search.Result, error) {
	if query == "" {
		return nil, errors.InvalidParam("query is required")
	}
	if num <= 0 {
		num = 10
	}

	body, err := json.Marshal(searchRequest{Q: query, Num: num})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode search request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDataSourceUnavailable, "failed to build search request")
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrap(err, errors.ErrCodeDataSourceTimeout, "search request timed out")
		}
		return nil, errors.Wrap(err, errors.ErrCodeDataSourceUnavailable, "search request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.New(errors.ErrCodeDataSourceAuthFailed, "search api rejected credentials")
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.New(errors.ErrCodeDataSourceRateLimited, "search api rate limit exceeded")
	default:
		return nil, errors.Newf(errors.ErrCodeDataSourceUnavailable, "search api returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDataSourceUnavailable, "failed to read search response")
	}

	var parsed searchResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDataSourceParseError, "failed to parse search response")
	}

	results := make([]search.Result, 0, len(parsed.Organic))
	for i, item := range parsed.Organic {
		position := item.Position
		if position == 0 {
			position = i + 1
		}
		r := search.Result{
			Title:    item.Title,
			URL:      item.Link,
			Snippet:  item.Snippet,
			Position: position,
			Query:    query,
		}
		results = append(results, r.Bounded(search.MaxSnippetLen))
	}

	c.logger.Debug("serper search completed",
		logging.String("query", query),
		logging.Int("results", len(results)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}

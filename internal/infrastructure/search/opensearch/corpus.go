package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/EntityRisk-Intelligence/internal/domain/search"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

const defaultCorpusSize = 10

// SearchAPI is the slice of the OpenSearch API the corpus searcher
// needs, abstracted for testing.
type SearchAPI interface {
	Search(ctx context.Context, index string, body io.Reader) (*opensearchapi.Response, error)
}

type clientSearchAPI struct {
	client *Client
}

func (a *clientSearchAPI) Search(ctx context.Context, index string, body io.Reader) (*opensearchapi.Response, error) {
	os := a.client.GetClient()
	return os.Search(
		os.Search.WithContext(ctx),
		os.Search.WithIndex(index),
		os.Search.WithBody(body),
	)
}

// CorpusSearcher queries the curated internal document index. Corpus
// documents carry longer snippets than web results, up to the corpus
// snippet bound.
type CorpusSearcher struct {
	api     SearchAPI
	index   string
	logger  logging.Logger
	metrics *prometheus.AppMetrics
}

type CorpusOption func(*CorpusSearcher)

// WithCorpusMetrics records per-call gateway metrics under source "corpus".
func WithCorpusMetrics(m *prometheus.AppMetrics) CorpusOption {
	return func(s *CorpusSearcher) { s.metrics = m }
}

func NewCorpusSearcher(client *Client, index string, log logging.Logger, opts ...CorpusOption) (*CorpusSearcher, error) {
	if index == "" {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "corpus index is required")
	}
	s := &CorpusSearcher{
		api:    &clientSearchAPI{client: client},
		index:  index,
		logger: log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewCorpusSearcherWithAPI wires a custom search API, used in tests.
func NewCorpusSearcherWithAPI(api SearchAPI, index string, log logging.Logger, opts ...CorpusOption) *CorpusSearcher {
	s := &CorpusSearcher{api: api, index: index, logger: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type corpusHit struct {
	Source struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"_source"`
}

type corpusResponse struct {
	Hits struct {
		Hits []corpusHit `json:"hits"`
	} `json:"hits"`
}

// Search runs a multi_match query over title and content and returns
// bounded results ranked by index relevance order.
func (s *CorpusSearcher) Search(ctx context.Context, query string, size int) ([]search.Result, error) {
	start := time.Now()
	results, err := s.search(ctx, query, size)
	if s.metrics != nil {
		prometheus.RecordSearch(s.metrics, "corpus", len(results), time.Since(start), err)
	}
	return results, err
}

func (s *CorpusSearcher) search(ctx context.Context, query string, size int) ([]search.Result, error) {
	if query == "" {
		return nil, errors.InvalidParam("query is required")
	}
	if size <= 0 {
		size = defaultCorpusSize
	}

	body := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^2", "content"},
			},
		},
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode corpus query")
	}

	resp, err := s.api.Search(ctx, s.index, bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDataSourceUnavailable, "corpus search failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, errors.Newf(errors.ErrCodeDataSourceUnavailable, "corpus search returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDataSourceUnavailable, "failed to read corpus response")
	}

	var parsed corpusResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDataSourceParseError, "failed to parse corpus response")
	}

	results := make([]search.Result, 0, len(parsed.Hits.Hits))
	for i, hit := range parsed.Hits.Hits {
		r := search.Result{
			Title:    hit.Source.Title,
			URL:      hit.Source.URL,
			Snippet:  hit.Source.Content,
			Position: i + 1,
			Query:    query,
		}
		results = append(results, r.Bounded(search.MaxCorpusSnippetLen))
	}

	s.logger.Debug("corpus search completed",
		logging.String("query", query),
		logging.String("index", s.index),
		logging.Int("results", len(results)),
	)
	return results, nil
}

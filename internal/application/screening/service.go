// Package screening fans generated queries out through the search
// gateway, aggregates results per risk category, stores one record per
// category, and optionally hands the batch to the scoring pipeline.
package screening

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/turtacn/EntityRisk-Intelligence/internal/config"
	domscreening "github.com/turtacn/EntityRisk-Intelligence/internal/domain/screening"
	"github.com/turtacn/EntityRisk-Intelligence/internal/domain/search"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

const (
	// DefaultRatePerSecond caps aggregate search gateway calls.
	DefaultRatePerSecond = 2.0

	// DefaultResultCount is the per-query result count requested from
	// the gateway.
	DefaultResultCount = 5

	// DefaultQueriesPerCategory bounds generated queries per category.
	DefaultQueriesPerCategory = 5

	sourceService = "entity-risk-intelligence"
)

// Searcher is the search gateway port.
type Searcher interface {
	Search(ctx context.Context, query string, num int) ([]search.Result, error)
}

// RecordStore persists per-category screening records.
type RecordStore interface {
	PutSearchRecord(ctx context.Context, rec *search.Record) error
}

// Publisher emits scoring requests.
type Publisher interface {
	Publish(ctx context.Context, msg *kafka.ProducerMessage) error
}

// CategoryOutcome is the per-category screening result.
type CategoryOutcome struct {
	Category        string          `json:"category"`
	QueriesExecuted int             `json:"queries_executed"`
	QueriesFailed   int             `json:"queries_failed"`
	Results         []search.Result `json:"results"`
	Stored          bool            `json:"stored"`
	ScoringQueued   bool            `json:"scoring_queued"`
}

// Outcome is the aggregate screening result for an entity.
type Outcome struct {
	EntityName   string            `json:"entity_name"`
	Categories   []CategoryOutcome `json:"categories"`
	TotalResults int               `json:"total_results"`
}

// Service runs targeted and comprehensive entity screenings.
type Service struct {
	catalog     *domscreening.KeywordCatalog
	searcher    Searcher
	store       RecordStore
	publisher   Publisher
	limiter     *rate.Limiter
	logger      logging.Logger
	resultCount int
	perCategory int
}

type ServiceOption func(*Service)

// WithRatePerSecond overrides the aggregate search rate cap.
func WithRatePerSecond(rps float64) ServiceOption {
	return func(s *Service) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithResultCount overrides the per-query result count.
func WithResultCount(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.resultCount = n
		}
	}
}

func NewService(catalog *domscreening.KeywordCatalog, searcher Searcher, store RecordStore, publisher Publisher, cfg config.ScreeningConfig, log logging.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		catalog:     catalog,
		searcher:    searcher,
		store:       store,
		publisher:   publisher,
		limiter:     rate.NewLimiter(rate.Limit(DefaultRatePerSecond), 1),
		logger:      log,
		resultCount: DefaultResultCount,
		perCategory: DefaultQueriesPerCategory,
	}
	if cfg.SearchRatePerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.SearchRatePerSecond), 1)
	}
	if cfg.DefaultResultCount > 0 {
		s.resultCount = cfg.DefaultResultCount
	}
	if cfg.MaxQueriesPerCategory > 0 {
		s.perCategory = cfg.MaxQueriesPerCategory
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScreenTargeted screens one entity against a single category.
func (s *Service) ScreenTargeted(ctx context.Context, entityName string, category domscreening.Category, maxQueries int, triggerScoring bool) (*Outcome, error) {
	if maxQueries <= 0 {
		maxQueries = s.perCategory
	}
	queries, err := s.catalog.GenerateQueries(entityName, category, maxQueries)
	if err != nil {
		return nil, err
	}

	outcome, err := s.screenCategory(ctx, entityName, string(category), queries, triggerScoring)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		EntityName:   entityName,
		Categories:   []CategoryOutcome{*outcome},
		TotalResults: len(outcome.Results),
	}, nil
}

// ScreenComprehensive screens one entity against every category plus the
// mixed bucket. Category order is stable; a category whose searches all
// fail still appears in the outcome with zero results.
func (s *Service) ScreenComprehensive(ctx context.Context, entityName string, perCategory int, triggerScoring bool) (*Outcome, error) {
	if perCategory <= 0 {
		perCategory = s.perCategory
	}
	generated, err := s.catalog.GenerateComprehensive(entityName, perCategory)
	if err != nil {
		return nil, err
	}

	order := make([]string, 0, len(generated))
	for _, cat := range domscreening.Categories() {
		order = append(order, string(cat))
	}
	order = append(order, domscreening.MixedBucket)

	result := &Outcome{EntityName: entityName}
	for _, category := range order {
		queries, ok := generated[category]
		if !ok {
			continue
		}
		outcome, err := s.screenCategory(ctx, entityName, category, queries, triggerScoring)
		if err != nil {
			return nil, err
		}
		result.Categories = append(result.Categories, *outcome)
		result.TotalResults += len(outcome.Results)
	}
	return result, nil
}

// screenCategory executes the generated queries sequentially under the
// rate cap and stores one aggregated record for the category. A failing
// query is logged and skipped; only context cancellation aborts the
// fan-out.
func (s *Service) screenCategory(ctx context.Context, entityName, category string, queries []string, triggerScoring bool) (*CategoryOutcome, error) {
	outcome := &CategoryOutcome{Category: category}

	for _, query := range queries {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeScreeningAborted, "screening cancelled")
		}
		results, err := s.searcher.Search(ctx, query, s.resultCount)
		outcome.QueriesExecuted++
		if err != nil {
			outcome.QueriesFailed++
			s.logger.Warn("screening query failed",
				logging.String("category", category),
				logging.String("query", query),
				logging.Err(err),
			)
			continue
		}
		outcome.Results = append(outcome.Results, results...)
	}

	if len(outcome.Results) == 0 {
		s.logger.Info("no results for category",
			logging.String("entity", entityName),
			logging.String("category", category),
		)
		return outcome, nil
	}

	rec := search.NewRecord(
		fmt.Sprintf("Entity Screening: %s - %s", entityName, category),
		outcome.Results,
		map[string]interface{}{
			"entity_name":      entityName,
			"category":         category,
			"queries_executed": outcome.QueriesExecuted,
			"queries_failed":   outcome.QueriesFailed,
			"screening_type":   "entity_screening",
		},
	)
	if err := s.store.PutSearchRecord(ctx, &rec); err != nil {
		s.logger.Error("failed to store screening record",
			logging.String("entity", entityName),
			logging.String("category", category),
			logging.Err(err),
		)
		return outcome, nil
	}
	outcome.Stored = true

	if triggerScoring && s.publisher != nil {
		outcome.ScoringQueued = s.publishScoringRequest(ctx, &rec, entityName)
	}
	return outcome, nil
}

func (s *Service) publishScoringRequest(ctx context.Context, rec *search.Record, entityName string) bool {
	payload := kafka.ScoringRequestPayload{
		Query:       rec.Query,
		Timestamp:   rec.Timestamp,
		QueryHash:   rec.QueryHash,
		EntityName:  entityName,
		ResultCount: rec.TotalResults,
	}
	envelope, err := kafka.NewEventEnvelope(kafka.EventTypeScoringRequested, sourceService, payload)
	if err != nil {
		s.logger.Error("failed to build scoring request", logging.Err(err))
		return false
	}
	msg, err := envelope.ToMessage(kafka.TopicScoringRequest, map[string]string{
		kafka.HeaderEntityName: entityName,
	})
	if err != nil {
		s.logger.Error("failed to build scoring message", logging.Err(err))
		return false
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.Error("failed to publish scoring request",
			logging.String("query", rec.Query),
			logging.Err(err),
		)
		return false
	}
	return true
}

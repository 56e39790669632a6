// Package scoring runs the per-result risk analysis pipeline: prompt the
// model for each search result, parse and normalize its assessment, attach
// the batch outcome to the search record, and fan risk records out to
// storage and notification.
package scoring

import (
	"context"
	"time"

	"github.com/turtacn/EntityRisk-Intelligence/internal/domain/risk"
	"github.com/turtacn/EntityRisk-Intelligence/internal/domain/search"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

// DefaultCallDelay spaces consecutive model calls within a batch.
const DefaultCallDelay = 200 * time.Millisecond

// Analyzer is the inference port.
type Analyzer interface {
	Infer(ctx context.Context, prompt string) (string, error)
}

// RecordStore is the slice of the record store the engine needs.
type RecordStore interface {
	GetSearchRecord(ctx context.Context, query string, ts time.Time) (*search.Record, error)
	LatestSearchByHash(ctx context.Context, queryHash string) (*search.Record, error)
	UpdateSearchRecord(ctx context.Context, rec *search.Record) error
	PutRiskRecord(ctx context.Context, rec *risk.Record) error
}

// Notifier routes a stored risk record to the notification queue. The
// boolean is an outcome, not an error: a failed emission never unwinds
// the persisted record.
type Notifier interface {
	RouteAssessment(ctx context.Context, rec *risk.Record) bool
}

// Engine drives the scoring pipeline.
type Engine struct {
	analyzer  Analyzer
	store     RecordStore
	notifier  Notifier
	logger    logging.Logger
	callDelay time.Duration
	now       func() time.Time
	metrics   *prometheus.AppMetrics
}

type EngineOption func(*Engine)

// WithCallDelay overrides the inter-call delay between model invocations.
func WithCallDelay(d time.Duration) EngineOption {
	return func(e *Engine) { e.callDelay = d }
}

// WithMetrics records assessment and fallback metrics.
func WithMetrics(m *prometheus.AppMetrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

func NewEngine(analyzer Analyzer, store RecordStore, notifier Notifier, log logging.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		analyzer:  analyzer,
		store:     store,
		notifier:  notifier,
		logger:    log,
		callDelay: DefaultCallDelay,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AnalyzeResult scores one search result. It never fails: an inference
// error or unparseable response produces a degraded analysis flagged for
// manual review instead of dropping the result from the batch.
func (e *Engine) AnalyzeResult(ctx context.Context, result search.Result, queryContext string) search.ResultAnalysis {
	raw, err := e.analyzer.Infer(ctx, BuildPrompt(result, queryContext))
	if err != nil {
		e.logger.Warn("inference failed, recording degraded analysis",
			logging.String("title", search.Truncate(result.Title, 50)),
			logging.Err(err),
		)
		if e.metrics != nil {
			e.metrics.FallbackAssessments.WithLabelValues("inference_error").Inc()
		}
		return e.degradedAnalysis(result, err)
	}

	parsed, err := parseAnalysis(raw)
	if err != nil {
		e.logger.Warn("model response unparseable, using fallback analysis",
			logging.String("title", search.Truncate(result.Title, 50)),
			logging.Err(err),
		)
		if e.metrics != nil {
			e.metrics.FallbackAssessments.WithLabelValues("unparseable_response").Inc()
		}
		parsed = fallbackAnalysis(raw)
	}

	assessment := parsed.Assessment
	assessment.CompositeRiskScore = assessment.Composite()

	return search.ResultAnalysis{
		OriginalResult:     result,
		Summary:            parsed.Summary,
		Assessment:         assessment,
		KeyFindings:        parsed.KeyFindings,
		RiskFactors:        parsed.RiskFactors,
		ComplianceConcerns: parsed.ComplianceConcerns,
		SourceCredibility:  parsed.SourceCredibility,
		RelevanceScore:     parsed.RelevanceScore,
		ConfidenceLevel:    parsed.ConfidenceLevel,
		ProcessedAt:        e.now().UTC(),
	}
}

// degradedAnalysis is the entry recorded when the model call itself fails.
func (e *Engine) degradedAnalysis(result search.Result, cause error) search.ResultAnalysis {
	parsed := neutralModelAnalysis()
	assessment := parsed.Assessment
	assessment.CompositeRiskScore = assessment.Composite()

	return search.ResultAnalysis{
		OriginalResult:     result,
		Summary:            search.Truncate(result.Snippet, 200),
		Assessment:         assessment,
		KeyFindings:        []string{"Error processing: " + cause.Error()},
		RiskFactors:        []string{"Analysis unavailable"},
		ComplianceConcerns: []string{"Manual review recommended"},
		SourceCredibility:  parsed.SourceCredibility,
		RelevanceScore:     0.3,
		ConfidenceLevel:    0.3,
		ProcessingError:    true,
		ProcessedAt:        e.now().UTC(),
	}
}

// ProcessRecord scores every result on the record, attaches the batch
// outcome, persists the updated record, and then stores and routes one
// risk record per analysis. Storage and notification of individual risk
// records are best-effort; the batch always runs to completion.
func (e *Engine) ProcessRecord(ctx context.Context, rec *search.Record, source string) error {
	if rec == nil {
		return errors.InvalidParam("record must not be nil")
	}
	if len(rec.Results) == 0 {
		e.logger.Info("no results to score", logging.String("query", rec.Query))
		return nil
	}
	if source == "" {
		source = "unknown"
	}
	batchStart := time.Now()

	analyses := make([]search.ResultAnalysis, 0, len(rec.Results))
	for i, result := range rec.Results {
		if i > 0 && e.callDelay > 0 {
			select {
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), errors.ErrCodeAIInferenceFailed, "batch cancelled")
			case <-time.After(e.callDelay):
			}
		}
		analyses = append(analyses, e.AnalyzeResult(ctx, result, rec.Query))
	}

	rec.AttachAnalysis(analyses)
	if err := e.store.UpdateSearchRecord(ctx, rec); err != nil {
		e.logger.Error("failed to persist analysis on search record",
			logging.String("query", rec.Query),
			logging.Err(err),
		)
	}

	stored, notified := 0, 0
	for _, analysis := range analyses {
		riskRec := e.buildRiskRecord(rec.Query, analysis, source)
		if err := e.store.PutRiskRecord(ctx, &riskRec); err != nil {
			e.logger.Error("failed to store risk record",
				logging.String("entity", riskRec.EntityName),
				logging.Err(err),
			)
			continue
		}
		stored++
		if e.metrics != nil {
			reason := ""
			if riskRec.RequiresReview() {
				reason = "risk_policy"
				if analysis.ProcessingError {
					reason = "processing_error"
				}
			}
			prometheus.RecordAssessment(e.metrics, string(riskRec.RiskLevel),
				riskRec.OverallRiskScore, riskRec.RequiresReview(), reason)
		}
		if e.notifier != nil && e.notifier.RouteAssessment(ctx, &riskRec) {
			notified++
		}
	}

	if e.metrics != nil {
		e.metrics.AssessmentDuration.WithLabelValues(source).Observe(time.Since(batchStart).Seconds())
	}
	e.logger.Info("scoring batch completed",
		logging.String("query", rec.Query),
		logging.Int("scored", len(analyses)),
		logging.Int("risk_records_stored", stored),
		logging.Int("notifications_sent", notified),
	)
	return nil
}

// ProcessQuery resolves a stored search record and runs the pipeline on
// it. The exact (query, timestamp) key is tried first; a stale timestamp
// falls back to the newest record for the query hash.
func (e *Engine) ProcessQuery(ctx context.Context, query string, ts time.Time, source string) error {
	rec, err := e.store.GetSearchRecord(ctx, query, ts)
	if err != nil {
		if !errors.IsNotFound(err) {
			return err
		}
		rec, err = e.store.LatestSearchByHash(ctx, search.QueryHash(query))
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeStoreRecordNotFound, "no search record for scoring request")
		}
	}
	return e.ProcessRecord(ctx, rec, source)
}

func (e *Engine) buildRiskRecord(query string, analysis search.ResultAnalysis, source string) risk.Record {
	entityName := risk.ExtractEntityName("", analysis.OriginalResult.Title, query)

	rec := risk.NewRecord(query, entityName, "", "", source)
	rec.Assessment = analysis.Assessment
	rec.OverallRiskScore = analysis.Assessment.OverallRiskScore
	rec.RiskLevel = analysis.Assessment.RiskLevel
	rec.KeyFindings = analysis.KeyFindings
	rec.RiskFactors = analysis.RiskFactors
	rec.ComplianceConcerns = analysis.ComplianceConcerns
	rec.ConfidenceLevel = analysis.ConfidenceLevel
	return rec
}

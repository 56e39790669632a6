// Package orchestrator routes validated screening requests to their
// processing path: plain search, queued scoring, workflow-backed
// synchronous analysis, or entity screening fan-out.
package orchestrator

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/EntityRisk-Intelligence/internal/application/screening"
	domscreening "github.com/turtacn/EntityRisk-Intelligence/internal/domain/screening"
	"github.com/turtacn/EntityRisk-Intelligence/internal/domain/search"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/workflow"
	"github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

// sourceService tags events published by the orchestrator.
const sourceService = "entity-risk-intelligence"

// Side effect names surfaced in outcomes. A failed side effect never
// fails a request whose primary search already succeeded.
const (
	SideEffectStored           = "stored_in_database"
	SideEffectScoringTriggered = "llm_processing_triggered"
)

// SideEffect records the result of one best-effort step.
type SideEffect struct {
	Name      string `json:"name"`
	Succeeded bool   `json:"succeeded"`
	Detail    string `json:"detail,omitempty"`
}

// Outcome is the terminal result of a request. Accepted marks responses
// where processing continues out of band (async mode, workflow still
// running at the poll ceiling).
type Outcome struct {
	RequestID   string                 `json:"request_id"`
	Mode        Mode                   `json:"mode"`
	Accepted    bool                   `json:"accepted,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Query       string                 `json:"query,omitempty"`
	Timestamp   time.Time              `json:"timestamp,omitempty"`
	QueryHash   string                 `json:"query_hash,omitempty"`
	Results     []search.Result        `json:"results,omitempty"`
	Screening   *screening.Outcome     `json:"screening,omitempty"`
	Execution   *workflow.ExecutionRef `json:"execution,omitempty"`
	Output      json.RawMessage        `json:"output,omitempty"`
	SideEffects []SideEffect           `json:"side_effects,omitempty"`
}

// Searcher is the web search gateway port.
type Searcher interface {
	Search(ctx context.Context, query string, num int) ([]search.Result, error)
}

// RecordStore persists search records and answers health probes.
type RecordStore interface {
	PutSearchRecord(ctx context.Context, rec *search.Record) error
	Ping(ctx context.Context) error
}

// Publisher emits scoring requests for asynchronous analysis.
type Publisher interface {
	Publish(ctx context.Context, msg *kafka.ProducerMessage) error
}

// WorkflowRunner drives synchronous-mode executions.
type WorkflowRunner interface {
	Start(ctx context.Context, name string, input interface{}) (workflow.ExecutionRef, error)
	Wait(ctx context.Context, ref workflow.ExecutionRef) (workflow.ExecutionStatus, error)
}

// Screener handles entity screening fan-out.
type Screener interface {
	ScreenTargeted(ctx context.Context, entityName string, category domscreening.Category, maxQueries int, triggerScoring bool) (*screening.Outcome, error)
	ScreenComprehensive(ctx context.Context, entityName string, perCategory int, triggerScoring bool) (*screening.Outcome, error)
}

// HealthCheck probes one named dependency.
type HealthCheck func(ctx context.Context) error

// Orchestrator validates requests and dispatches them by mode.
type Orchestrator struct {
	searcher Searcher
	store    RecordStore
	producer Publisher
	runner   WorkflowRunner
	screener Screener
	logger   logging.Logger
	checks   map[string]HealthCheck
	metrics  *prometheus.AppMetrics
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithHealthCheck registers an extra dependency probe reported by Health.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(o *Orchestrator) {
		o.checks[name] = check
	}
}

// WithMetrics records workflow execution and dependency health metrics.
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New wires the orchestrator. The runner and screener may be nil when the
// deployment does not serve sync or entity screening modes; requests for a
// missing mode fail with a configuration error.
func New(searcher Searcher, store RecordStore, producer Publisher, runner WorkflowRunner, screener Screener, log logging.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		searcher: searcher,
		store:    store,
		producer: producer,
		runner:   runner,
		screener: screener,
		logger:   log,
		checks:   make(map[string]HealthCheck),
	}
	if store != nil {
		o.checks["store"] = store.Ping
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process normalises, validates, and routes one request.
func (o *Orchestrator) Process(ctx context.Context, req *Request) (*Outcome, error) {
	if req == nil {
		return nil, errors.InvalidParam("request is required")
	}
	req.Normalize()
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	o.logger.Info("processing screening request",
		logging.String("request_id", req.RequestID),
		logging.String("mode", string(req.Mode)),
		logging.Int("result_count", req.ResultCount),
	)

	switch req.Mode {
	case ModeSearchOnly:
		return o.searchOnly(ctx, req)
	case ModeAsync:
		return o.async(ctx, req)
	case ModeSync:
		return o.sync(ctx, req)
	case ModeEntityScreening:
		return o.entityScreening(ctx, req)
	}
	return nil, errors.New(errors.ErrCodeScreeningInvalidMode, "unsupported processing mode").WithDetail(string(req.Mode))
}

// searchOnly runs the search and stores the results without analysis.
func (o *Orchestrator) searchOnly(ctx context.Context, req *Request) (*Outcome, error) {
	rec, effects, err := o.searchAndStore(ctx, req)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		RequestID:   req.RequestID,
		Mode:        req.Mode,
		Query:       rec.Query,
		Timestamp:   rec.Timestamp,
		QueryHash:   rec.QueryHash,
		Results:     rec.Results,
		SideEffects: effects,
	}, nil
}

// async stores the results, queues a scoring request, and returns an
// accepted outcome carrying the search results and tracking fields.
func (o *Orchestrator) async(ctx context.Context, req *Request) (*Outcome, error) {
	rec, effects, err := o.searchAndStore(ctx, req)
	if err != nil {
		return nil, err
	}
	effects = append(effects, o.publishScoringRequest(ctx, rec, req))
	return &Outcome{
		RequestID:   req.RequestID,
		Mode:        req.Mode,
		Accepted:    true,
		Message:     "search completed, risk analysis queued",
		Query:       rec.Query,
		Timestamp:   rec.Timestamp,
		QueryHash:   rec.QueryHash,
		Results:     rec.Results,
		SideEffects: effects,
	}, nil
}

// sync starts a workflow execution and waits for a terminal status up to
// the client's poll ceiling. A still-running execution at the ceiling is
// reported as accepted rather than failed.
func (o *Orchestrator) sync(ctx context.Context, req *Request) (*Outcome, error) {
	if o.runner == nil {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "synchronous mode is not configured")
	}

	input := map[string]interface{}{
		"query":        req.Query,
		"result_count": req.ResultCount,
		"request_id":   req.RequestID,
	}
	started := time.Now()
	ref, err := o.runner.Start(ctx, "screen-"+req.RequestID, input)
	if err != nil {
		o.recordWorkflow("start_failed", started)
		return nil, err
	}

	status, err := o.runner.Wait(ctx, ref)
	if err != nil {
		if stderrors.Is(err, workflow.ErrPollCeilingReached) {
			o.recordWorkflow("running", started)
			o.logger.Warn("workflow still running at poll ceiling",
				logging.String("request_id", req.RequestID),
				logging.String("execution_id", ref.ExecutionID),
			)
			return &Outcome{
				RequestID: req.RequestID,
				Mode:      req.Mode,
				Accepted:  true,
				Message:   "processing continues in background",
				Query:     req.Query,
				Execution: &ref,
			}, nil
		}
		o.recordWorkflow("wait_failed", started)
		return nil, err
	}

	if status.Status != workflow.StatusSucceeded {
		o.recordWorkflow("failed", started)
		return nil, errors.Newf(errors.ErrCodeWorkflowExecutionFailed,
			"workflow execution ended with status %s", status.Status).WithDetail(ref.ExecutionID)
	}
	o.recordWorkflow("succeeded", started)
	return &Outcome{
		RequestID: req.RequestID,
		Mode:      req.Mode,
		Query:     req.Query,
		Execution: &ref,
		Output:    status.Output,
	}, nil
}

// entityScreening delegates to the screening service. An empty or "all"
// category runs the comprehensive sweep.
func (o *Orchestrator) entityScreening(ctx context.Context, req *Request) (*Outcome, error) {
	if o.screener == nil {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "entity screening is not configured")
	}

	var (
		result *screening.Outcome
		err    error
	)
	if req.Category == "" || req.Category == string(domscreening.CategoryAll) {
		result, err = o.screener.ScreenComprehensive(ctx, req.EntityName, req.MaxQueries, req.TriggerScoring)
	} else {
		category, perr := domscreening.ParseCategory(req.Category)
		if perr != nil {
			return nil, perr
		}
		result, err = o.screener.ScreenTargeted(ctx, req.EntityName, category, req.MaxQueries, req.TriggerScoring)
	}
	if err != nil {
		return nil, err
	}
	return &Outcome{
		RequestID: req.RequestID,
		Mode:      req.Mode,
		Screening: result,
	}, nil
}

// searchAndStore runs the primary search and persists the record. The
// store write is best-effort once the search succeeded.
func (o *Orchestrator) searchAndStore(ctx context.Context, req *Request) (*search.Record, []SideEffect, error) {
	results, err := o.searcher.Search(ctx, req.Query, req.ResultCount)
	if err != nil {
		return nil, nil, err
	}

	rec := search.NewRecord(req.Query, results, map[string]interface{}{
		"request_id": req.RequestID,
		"mode":       string(req.Mode),
	})

	stored := SideEffect{Name: SideEffectStored, Succeeded: true}
	if err := o.store.PutSearchRecord(ctx, &rec); err != nil {
		o.logger.Error("failed to store search record",
			logging.String("request_id", req.RequestID),
			logging.String("query", rec.Query),
			logging.Err(err),
		)
		stored.Succeeded = false
		stored.Detail = "record could not be stored"
	}
	return &rec, []SideEffect{stored}, nil
}

// publishScoringRequest queues the stored record for risk analysis.
func (o *Orchestrator) publishScoringRequest(ctx context.Context, rec *search.Record, req *Request) SideEffect {
	effect := SideEffect{Name: SideEffectScoringTriggered, Succeeded: true}

	payload := kafka.ScoringRequestPayload{
		Query:       rec.Query,
		Timestamp:   rec.Timestamp,
		QueryHash:   rec.QueryHash,
		EntityName:  req.EntityName,
		ResultCount: rec.TotalResults,
	}
	envelope, err := kafka.NewEventEnvelope(kafka.EventTypeScoringRequested, sourceService, payload)
	if err == nil {
		var msg *kafka.ProducerMessage
		msg, err = envelope.ToMessage(kafka.TopicScoringRequest, nil)
		if err == nil {
			err = o.producer.Publish(ctx, msg)
		}
	}
	if err != nil {
		o.logger.Error("failed to queue scoring request",
			logging.String("request_id", req.RequestID),
			logging.String("query", rec.Query),
			logging.Err(err),
		)
		effect.Succeeded = false
		effect.Detail = "scoring request could not be queued"
	}
	return effect
}

// ComponentHealth is one dependency's probe result.
type ComponentHealth struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Health probes every registered dependency. Healthy is false when any
// probe fails. Probe failures surface only their error code; the full
// error is logged, never serialised.
func (o *Orchestrator) Health(ctx context.Context) (bool, []ComponentHealth) {
	healthy := true
	components := make([]ComponentHealth, 0, len(o.checks))
	for name, check := range o.checks {
		ch := ComponentHealth{Name: name, Status: "up"}
		up := 1.0
		if err := check(ctx); err != nil {
			healthy = false
			up = 0
			ch.Status = "down"
			ch.Error = string(errors.GetCode(err))
			o.logger.Warn("dependency probe failed",
				logging.String("component", name),
				logging.Err(err),
			)
		}
		if o.metrics != nil {
			o.metrics.HealthCheckStatus.WithLabelValues(name).Set(up)
		}
		components = append(components, ch)
	}
	return healthy, components
}

func (o *Orchestrator) recordWorkflow(status string, started time.Time) {
	if o.metrics == nil {
		return
	}
	prometheus.RecordWorkflowExecution(o.metrics, status, time.Since(started))
}

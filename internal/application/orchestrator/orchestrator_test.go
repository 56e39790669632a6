package orchestrator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/EntityRisk-Intelligence/internal/application/screening"
	domscreening "github.com/turtacn/EntityRisk-Intelligence/internal/domain/screening"
	"github.com/turtacn/EntityRisk-Intelligence/internal/domain/search"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/workflow"
	pkgerrors "github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

type fakeSearcher struct {
	results []search.Result
	err     error
	gotNum  int
}

func (f *fakeSearcher) Search(_ context.Context, query string, num int) ([]search.Result, error) {
	f.gotNum = num
	if f.err != nil {
		return nil, f.err
	}
	out := make([]search.Result, len(f.results))
	copy(out, f.results)
	for i := range out {
		out[i].Query = query
	}
	return out, nil
}

type fakeStore struct {
	records []*search.Record
	putErr  error
	pingErr error
}

func (f *fakeStore) PutSearchRecord(_ context.Context, rec *search.Record) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeStore) Ping(_ context.Context) error { return f.pingErr }

type fakePublisher struct {
	messages []*kafka.ProducerMessage
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, msg *kafka.ProducerMessage) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)
	return nil
}

type fakeRunner struct {
	ref      workflow.ExecutionRef
	startErr error
	status   workflow.ExecutionStatus
	waitErr  error
	gotName  string
	gotInput interface{}
}

func (f *fakeRunner) Start(_ context.Context, name string, input interface{}) (workflow.ExecutionRef, error) {
	f.gotName = name
	f.gotInput = input
	return f.ref, f.startErr
}

func (f *fakeRunner) Wait(_ context.Context, _ workflow.ExecutionRef) (workflow.ExecutionStatus, error) {
	return f.status, f.waitErr
}

type fakeScreener struct {
	outcome       *screening.Outcome
	err           error
	targetedCat   domscreening.Category
	comprehensive bool
}

func (f *fakeScreener) ScreenTargeted(_ context.Context, _ string, category domscreening.Category, _ int, _ bool) (*screening.Outcome, error) {
	f.targetedCat = category
	return f.outcome, f.err
}

func (f *fakeScreener) ScreenComprehensive(_ context.Context, _ string, _ int, _ bool) (*screening.Outcome, error) {
	f.comprehensive = true
	return f.outcome, f.err
}

func someResults() []search.Result {
	return []search.Result{
		{Title: "Acme fraud probe", URL: "https://example.com/a", Position: 1},
		{Title: "Acme settles case", URL: "https://example.com/b", Position: 2},
	}
}

func newTestOrchestrator(searcher *fakeSearcher, store *fakeStore, pub *fakePublisher, runner WorkflowRunner, screener Screener) *Orchestrator {
	if searcher == nil {
		searcher = &fakeSearcher{results: someResults()}
	}
	if store == nil {
		store = &fakeStore{}
	}
	if pub == nil {
		pub = &fakePublisher{}
	}
	return New(searcher, store, pub, runner, screener, logging.NewNopLogger())
}

func TestSanitizeQuery(t *testing.T) {
	assert.Equal(t, "Acme Corp fraud", SanitizeQuery(`  <Acme> "Corp" fraud'  `))
	assert.Equal(t, "", SanitizeQuery(`<>"'`))
}

func TestRequestValidation(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		wantCode pkgerrors.ErrorCode
	}{
		{"unknown mode", Request{Query: "Acme Corp", Mode: "batch"}, pkgerrors.ErrCodeScreeningInvalidMode},
		{"count too high", Request{Query: "Acme Corp", ResultCount: 101}, pkgerrors.ErrCodeScreeningInvalidCount},
		{"count negative", Request{Query: "Acme Corp", ResultCount: -1}, pkgerrors.ErrCodeScreeningInvalidCount},
		{"query too short", Request{Query: "ab"}, pkgerrors.ErrCodeScreeningInvalidQuery},
		{"query only unsafe chars", Request{Query: `<<"">>`}, pkgerrors.ErrCodeScreeningInvalidQuery},
		{"entity screening without entity", Request{Mode: ModeEntityScreening}, pkgerrors.ErrCodeScreeningEmptyEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			req.Normalize()
			err := req.Validate()
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestNormalizeDefaults(t *testing.T) {
	req := Request{Query: "Acme Corp"}
	req.Normalize()
	assert.Equal(t, ModeSearchOnly, req.Mode)
	assert.Equal(t, 5, req.ResultCount)
	require.NoError(t, req.Validate())
}

func TestSearchOnly(t *testing.T) {
	searcher := &fakeSearcher{results: someResults()}
	store := &fakeStore{}
	o := newTestOrchestrator(searcher, store, nil, nil, nil)

	outcome, err := o.Process(context.Background(), &Request{Query: "Acme Corp fraud", ResultCount: 10})
	require.NoError(t, err)

	assert.Equal(t, ModeSearchOnly, outcome.Mode)
	assert.False(t, outcome.Accepted)
	assert.NotEmpty(t, outcome.RequestID)
	assert.Len(t, outcome.Results, 2)
	assert.Equal(t, 10, searcher.gotNum)
	assert.Equal(t, search.QueryHash("Acme Corp fraud"), outcome.QueryHash)

	require.Len(t, outcome.SideEffects, 1)
	assert.Equal(t, SideEffectStored, outcome.SideEffects[0].Name)
	assert.True(t, outcome.SideEffects[0].Succeeded)
	require.Len(t, store.records, 1)
	assert.Equal(t, "Acme Corp fraud", store.records[0].Query)
}

func TestSearchOnlyStoreFailureIsSoft(t *testing.T) {
	store := &fakeStore{putErr: pkgerrors.New(pkgerrors.ErrCodeStoreUnavailable, "down")}
	o := newTestOrchestrator(nil, store, nil, nil, nil)

	outcome, err := o.Process(context.Background(), &Request{Query: "Acme Corp fraud"})
	require.NoError(t, err)
	assert.Len(t, outcome.Results, 2)
	require.Len(t, outcome.SideEffects, 1)
	assert.False(t, outcome.SideEffects[0].Succeeded)
	assert.NotEmpty(t, outcome.SideEffects[0].Detail)
}

func TestSearchFailureIsHard(t *testing.T) {
	searcher := &fakeSearcher{err: pkgerrors.New(pkgerrors.ErrCodeDataSourceUnavailable, "timeout")}
	o := newTestOrchestrator(searcher, nil, nil, nil, nil)

	_, err := o.Process(context.Background(), &Request{Query: "Acme Corp fraud"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeDataSourceUnavailable))
}

func TestAsyncQueuesScoring(t *testing.T) {
	pub := &fakePublisher{}
	o := newTestOrchestrator(nil, nil, pub, nil, nil)

	outcome, err := o.Process(context.Background(), &Request{Query: "Acme Corp fraud", Mode: ModeAsync})
	require.NoError(t, err)

	assert.True(t, outcome.Accepted)
	assert.Len(t, outcome.Results, 2)
	require.Len(t, outcome.SideEffects, 2)
	assert.Equal(t, SideEffectStored, outcome.SideEffects[0].Name)
	assert.Equal(t, SideEffectScoringTriggered, outcome.SideEffects[1].Name)
	assert.True(t, outcome.SideEffects[1].Succeeded)

	require.Len(t, pub.messages, 1)
	msg := pub.messages[0]
	assert.Equal(t, kafka.TopicScoringRequest, msg.Topic)

	envelope, err := kafka.MessageToEventEnvelope(&kafka.Message{Value: msg.Value})
	require.NoError(t, err)
	var payload kafka.ScoringRequestPayload
	require.NoError(t, envelope.DecodePayload(&payload))
	assert.Equal(t, "Acme Corp fraud", payload.Query)
	assert.Equal(t, outcome.QueryHash, payload.QueryHash)
	assert.Equal(t, 2, payload.ResultCount)
}

func TestAsyncPublishFailureIsSoft(t *testing.T) {
	pub := &fakePublisher{err: pkgerrors.New(pkgerrors.ErrCodeQueuePublishFailed, "broker down")}
	o := newTestOrchestrator(nil, nil, pub, nil, nil)

	outcome, err := o.Process(context.Background(), &Request{Query: "Acme Corp fraud", Mode: ModeAsync})
	require.NoError(t, err)
	assert.True(t, outcome.Accepted)
	require.Len(t, outcome.SideEffects, 2)
	assert.True(t, outcome.SideEffects[0].Succeeded)
	assert.False(t, outcome.SideEffects[1].Succeeded)
}

func TestSyncSucceeded(t *testing.T) {
	runner := &fakeRunner{
		ref:    workflow.ExecutionRef{ExecutionID: "exec-1", StateMachine: "screening"},
		status: workflow.ExecutionStatus{Status: workflow.StatusSucceeded, Output: json.RawMessage(`{"risk_level":"HIGH"}`)},
	}
	o := newTestOrchestrator(nil, nil, nil, runner, nil)

	outcome, err := o.Process(context.Background(), &Request{Query: "Acme Corp fraud", Mode: ModeSync, RequestID: "req-1"})
	require.NoError(t, err)

	assert.False(t, outcome.Accepted)
	require.NotNil(t, outcome.Execution)
	assert.Equal(t, "exec-1", outcome.Execution.ExecutionID)
	assert.JSONEq(t, `{"risk_level":"HIGH"}`, string(outcome.Output))
	assert.Equal(t, "screen-req-1", runner.gotName)
}

func TestSyncCeilingBecomesAccepted(t *testing.T) {
	runner := &fakeRunner{
		ref:     workflow.ExecutionRef{ExecutionID: "exec-2"},
		waitErr: workflow.ErrPollCeilingReached,
	}
	o := newTestOrchestrator(nil, nil, nil, runner, nil)

	outcome, err := o.Process(context.Background(), &Request{Query: "Acme Corp fraud", Mode: ModeSync})
	require.NoError(t, err)

	assert.True(t, outcome.Accepted)
	assert.Equal(t, "processing continues in background", outcome.Message)
	require.NotNil(t, outcome.Execution)
	assert.Equal(t, "exec-2", outcome.Execution.ExecutionID)
}

func TestSyncTerminalFailure(t *testing.T) {
	for _, status := range []string{workflow.StatusFailed, workflow.StatusTimedOut, workflow.StatusAborted} {
		t.Run(status, func(t *testing.T) {
			runner := &fakeRunner{
				ref:    workflow.ExecutionRef{ExecutionID: "exec-3"},
				status: workflow.ExecutionStatus{Status: status},
			}
			o := newTestOrchestrator(nil, nil, nil, runner, nil)

			_, err := o.Process(context.Background(), &Request{Query: "Acme Corp fraud", Mode: ModeSync})
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeWorkflowExecutionFailed))
		})
	}
}

func TestSyncNotConfigured(t *testing.T) {
	o := newTestOrchestrator(nil, nil, nil, nil, nil)
	_, err := o.Process(context.Background(), &Request{Query: "Acme Corp fraud", Mode: ModeSync})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeConfigInvalid))
}

func TestEntityScreeningTargeted(t *testing.T) {
	screener := &fakeScreener{outcome: &screening.Outcome{EntityName: "Acme Corp", TotalResults: 4}}
	o := newTestOrchestrator(nil, nil, nil, nil, screener)

	outcome, err := o.Process(context.Background(), &Request{
		Mode:       ModeEntityScreening,
		EntityName: "Acme Corp",
		Category:   "financial_crimes",
	})
	require.NoError(t, err)
	assert.Equal(t, domscreening.CategoryFinancialCrimes, screener.targetedCat)
	assert.False(t, screener.comprehensive)
	require.NotNil(t, outcome.Screening)
	assert.Equal(t, 4, outcome.Screening.TotalResults)
}

func TestEntityScreeningComprehensiveByDefault(t *testing.T) {
	screener := &fakeScreener{outcome: &screening.Outcome{EntityName: "Acme Corp"}}
	o := newTestOrchestrator(nil, nil, nil, nil, screener)

	_, err := o.Process(context.Background(), &Request{Mode: ModeEntityScreening, EntityName: "Acme Corp"})
	require.NoError(t, err)
	assert.True(t, screener.comprehensive)
}

func TestEntityScreeningUnknownCategory(t *testing.T) {
	screener := &fakeScreener{outcome: &screening.Outcome{}}
	o := newTestOrchestrator(nil, nil, nil, nil, screener)

	_, err := o.Process(context.Background(), &Request{
		Mode:       ModeEntityScreening,
		EntityName: "Acme Corp",
		Category:   "astrology",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeScreeningUnknownCategory))
}

func TestHealth(t *testing.T) {
	store := &fakeStore{}
	o := newTestOrchestrator(nil, store, nil, nil, nil)

	healthy, components := o.Health(context.Background())
	assert.True(t, healthy)
	require.Len(t, components, 1)
	assert.Equal(t, "store", components[0].Name)
	assert.Equal(t, "up", components[0].Status)
}

func TestHealthReportsFailures(t *testing.T) {
	store := &fakeStore{pingErr: pkgerrors.New(pkgerrors.ErrCodeStoreUnavailable, "redis down")}
	o := New(&fakeSearcher{}, store, &fakePublisher{}, nil, nil, logging.NewNopLogger(),
		WithHealthCheck("broker", func(context.Context) error { return nil }),
	)

	healthy, components := o.Health(context.Background())
	assert.False(t, healthy)
	assert.Len(t, components, 2)

	byName := make(map[string]ComponentHealth, len(components))
	for _, c := range components {
		byName[c.Name] = c
	}
	assert.Equal(t, "down", byName["store"].Status)
	assert.NotEmpty(t, byName["store"].Error)
	assert.Equal(t, "up", byName["broker"].Status)
}

func TestHealthReportsErrorCodeOnly(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace: "erisk",
		Subsystem: "test",
	}, logging.NewNopLogger())
	require.NoError(t, err)
	m := prometheus.NewAppMetrics(collector)

	store := &fakeStore{pingErr: pkgerrors.New(pkgerrors.ErrCodeStoreUnavailable,
		"dial tcp 10.0.0.5:6379: connect: connection refused")}
	o := New(&fakeSearcher{}, store, &fakePublisher{}, nil, nil, logging.NewNopLogger(),
		WithMetrics(m))

	healthy, components := o.Health(context.Background())
	assert.False(t, healthy)
	require.Len(t, components, 1)
	assert.Equal(t, string(pkgerrors.ErrCodeStoreUnavailable), components[0].Error)
	assert.NotContains(t, components[0].Error, "10.0.0.5")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), `erisk_test_health_check_status{component="store"} 0`)
}

package prometheus

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

func newTestAppMetrics(t *testing.T) (*AppMetrics, MetricsCollector) {
	t.Helper()
	collector := newTestCollector(t)
	m := NewAppMetrics(collector)
	require.NotNil(t, m)
	return m, collector
}

func TestNewAppMetricsRegistersFamilies(t *testing.T) {
	m, collector := newTestAppMetrics(t)

	m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/screen", "202").Inc()
	m.SearchRequestsTotal.WithLabelValues("serper", "success").Inc()
	m.AssessmentsTotal.WithLabelValues("HIGH").Inc()
	m.QueueDeadLettered.WithLabelValues("risk.scoring.request").Inc()
	m.HealthCheckStatus.WithLabelValues("redis").Set(1)

	output := scrapeMetrics(t, collector)
	assert.Contains(t, output, "erisk_test_http_requests_total")
	assert.Contains(t, output, "erisk_test_search_requests_total")
	assert.Contains(t, output, "erisk_test_assessments_total")
	assert.Contains(t, output, "erisk_test_queue_dead_lettered_total")
	assert.Contains(t, output, "erisk_test_health_check_status")
}

func TestRecordHTTPRequest(t *testing.T) {
	m, collector := newTestAppMetrics(t)

	RecordHTTPRequest(m, http.MethodPost, "/api/v1/screen", http.StatusAccepted, 120*time.Millisecond)

	output := scrapeMetrics(t, collector)
	assert.Contains(t, output, `status_code="202"`)
	assert.Contains(t, output, "erisk_test_http_request_duration_seconds_count")
}

func TestRecordSearch(t *testing.T) {
	m, collector := newTestAppMetrics(t)

	RecordSearch(m, "serper", 8, 300*time.Millisecond, nil)
	RecordSearch(m, "corpus", 0, time.Second, pkgerrors.New(pkgerrors.ErrCodeDataSourceUnavailable, "down"))

	output := scrapeMetrics(t, collector)
	assert.Contains(t, output, `source="serper",status="success"`)
	assert.Contains(t, output, `source="corpus",status="failure"`)
	// Failed searches do not pollute the result-count distribution.
	assert.Contains(t, output, `erisk_test_search_result_count_count{source="serper"} 1`)
	assert.NotContains(t, output, `erisk_test_search_result_count_count{source="corpus"}`)
}

func TestRecordAssessment(t *testing.T) {
	m, collector := newTestAppMetrics(t)

	RecordAssessment(m, "HIGH", 0.82, true, "high_risk")
	RecordAssessment(m, "LOW", 0.15, false, "")

	output := scrapeMetrics(t, collector)
	assert.Contains(t, output, `risk_level="HIGH"`)
	assert.Contains(t, output, `risk_level="LOW"`)
	assert.Contains(t, output, `erisk_test_assessments_for_review_total{reason="high_risk"} 1`)
	assert.Contains(t, output, "erisk_test_assessment_risk_score_count 2")
}

func TestRecordInference(t *testing.T) {
	m, collector := newTestAppMetrics(t)

	RecordInference(m, "gpt-4o-mini", 2*time.Second, 150, 80, nil)

	output := scrapeMetrics(t, collector)
	assert.Contains(t, output, `erisk_test_inference_tokens_total{direction="prompt",model="gpt-4o-mini"} 150`)
	assert.Contains(t, output, `erisk_test_inference_tokens_total{direction="completion",model="gpt-4o-mini"} 80`)
	assert.Contains(t, output, `model="gpt-4o-mini",status="success"`)
}

func TestRecordQueueMessageAndError(t *testing.T) {
	m, collector := newTestAppMetrics(t)

	RecordQueueMessage(m, "risk.scoring.request", 50*time.Millisecond, nil)
	RecordQueueMessage(m, "risk.scoring.request", 10*time.Millisecond, pkgerrors.New(pkgerrors.ErrCodeInternal, "boom"))
	RecordError(m, "scoring", string(pkgerrors.ErrCodeAIInferenceFailed))

	output := scrapeMetrics(t, collector)
	assert.Contains(t, output, `status="success",topic="risk.scoring.request"`)
	assert.Contains(t, output, `status="failure",topic="risk.scoring.request"`)
	assert.Contains(t, output, `erisk_test_errors_total{component="scoring",error_code="AI_002"} 1`)
}

func TestRecordStoreOperation(t *testing.T) {
	m, collector := newTestAppMetrics(t)

	RecordStoreOperation(m, "put_search", 2*time.Millisecond, nil)

	output := scrapeMetrics(t, collector)
	assert.Contains(t, output, `operation="put_search",status="success"`)
	assert.Contains(t, output, "erisk_test_store_operation_duration_seconds_count")
}

func TestRecordWorkflowExecution(t *testing.T) {
	m, collector := newTestAppMetrics(t)

	RecordWorkflowExecution(m, "succeeded", 1500*time.Millisecond)
	RecordWorkflowExecution(m, "failed", 200*time.Millisecond)

	output := scrapeMetrics(t, collector)
	assert.Contains(t, output, `erisk_test_workflow_executions_total{status="succeeded"} 1`)
	assert.Contains(t, output, `erisk_test_workflow_executions_total{status="failed"} 1`)
	assert.Contains(t, output, `erisk_test_workflow_execution_duration_seconds_count{status="succeeded"} 1`)
}

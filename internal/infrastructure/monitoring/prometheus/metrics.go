package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every metric family the screening pipeline emits.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Search gateways
	SearchRequestsTotal   CounterVec
	SearchRequestDuration HistogramVec
	SearchResultCount     HistogramVec

	// Record store
	StoreOperationsTotal   CounterVec
	StoreOperationDuration HistogramVec
	StoreRecordsSwept      CounterVec

	// Message queue
	QueueMessagesPublished CounterVec
	QueueMessagesConsumed  CounterVec
	QueueDeadLettered      CounterVec
	QueueProcessDuration   HistogramVec

	// Inference
	InferenceRequestsTotal   CounterVec
	InferenceRequestDuration HistogramVec
	InferenceTokensUsed      CounterVec

	// Scoring
	AssessmentsTotal     CounterVec
	AssessmentDuration   HistogramVec
	AssessmentRiskScore  HistogramVec
	AssessmentsForReview CounterVec
	FallbackAssessments  CounterVec

	// Workflow
	WorkflowExecutionsTotal  CounterVec
	WorkflowExecutionLatency HistogramVec

	// System health
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

var (
	DefaultHTTPDurationBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultGatewayDurationBuckets  = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}
	DefaultPipelineDurationBuckets = []float64{1, 5, 10, 30, 60, 120, 300, 600}
	DefaultStoreDurationBuckets    = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
	DefaultResultCountBuckets      = []float64{0, 1, 5, 10, 25, 50, 100}
	DefaultRiskScoreBuckets        = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}
)

// NewAppMetrics registers every metric family on the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "In-flight HTTP requests", "method")

	m.SearchRequestsTotal = collector.RegisterCounter("search_requests_total", "Search gateway requests", "source", "status")
	m.SearchRequestDuration = collector.RegisterHistogram("search_request_duration_seconds", "Search gateway latency", DefaultGatewayDurationBuckets, "source")
	m.SearchResultCount = collector.RegisterHistogram("search_result_count", "Results returned per search", DefaultResultCountBuckets, "source")

	m.StoreOperationsTotal = collector.RegisterCounter("store_operations_total", "Record store operations", "operation", "status")
	m.StoreOperationDuration = collector.RegisterHistogram("store_operation_duration_seconds", "Record store latency", DefaultStoreDurationBuckets, "operation")
	m.StoreRecordsSwept = collector.RegisterCounter("store_records_swept_total", "Expired records removed by the sweeper", "record_type")

	m.QueueMessagesPublished = collector.RegisterCounter("queue_messages_published_total", "Messages published", "topic", "status")
	m.QueueMessagesConsumed = collector.RegisterCounter("queue_messages_consumed_total", "Messages consumed", "topic", "status")
	m.QueueDeadLettered = collector.RegisterCounter("queue_dead_lettered_total", "Messages routed to the dead letter topic", "topic")
	m.QueueProcessDuration = collector.RegisterHistogram("queue_process_duration_seconds", "Message handling latency", DefaultHTTPDurationBuckets, "topic")

	m.InferenceRequestsTotal = collector.RegisterCounter("inference_requests_total", "Model inference requests", "model", "status")
	m.InferenceRequestDuration = collector.RegisterHistogram("inference_request_duration_seconds", "Model inference latency", DefaultGatewayDurationBuckets, "model")
	m.InferenceTokensUsed = collector.RegisterCounter("inference_tokens_total", "Tokens consumed by inference", "model", "direction")

	m.AssessmentsTotal = collector.RegisterCounter("assessments_total", "Completed risk assessments", "risk_level")
	m.AssessmentDuration = collector.RegisterHistogram("assessment_duration_seconds", "End-to-end assessment latency", DefaultPipelineDurationBuckets, "source")
	m.AssessmentRiskScore = collector.RegisterHistogram("assessment_risk_score", "Overall risk score distribution", DefaultRiskScoreBuckets)
	m.AssessmentsForReview = collector.RegisterCounter("assessments_for_review_total", "Assessments flagged for manual review", "reason")
	m.FallbackAssessments = collector.RegisterCounter("fallback_assessments_total", "Assessments downgraded to the neutral fallback", "cause")

	m.WorkflowExecutionsTotal = collector.RegisterCounter("workflow_executions_total", "Workflow executions started", "status")
	m.WorkflowExecutionLatency = collector.RegisterHistogram("workflow_execution_duration_seconds", "Workflow execution wall time", DefaultPipelineDurationBuckets, "status")

	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Component health (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Errors by component", "component", "error_code")

	return m
}

// Recording helpers keep label discipline in one place.

func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordSearch(m *AppMetrics, source string, resultCount int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.SearchRequestsTotal.WithLabelValues(source, status).Inc()
	m.SearchRequestDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err == nil {
		m.SearchResultCount.WithLabelValues(source).Observe(float64(resultCount))
	}
}

func RecordStoreOperation(m *AppMetrics, operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.StoreOperationsTotal.WithLabelValues(operation, status).Inc()
	m.StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func RecordInference(m *AppMetrics, model string, duration time.Duration, promptTokens, completionTokens int, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.InferenceRequestsTotal.WithLabelValues(model, status).Inc()
	m.InferenceRequestDuration.WithLabelValues(model).Observe(duration.Seconds())
	m.InferenceTokensUsed.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	m.InferenceTokensUsed.WithLabelValues(model, "completion").Add(float64(completionTokens))
}

func RecordAssessment(m *AppMetrics, riskLevel string, overallScore float64, requiresReview bool, reviewReason string) {
	m.AssessmentsTotal.WithLabelValues(riskLevel).Inc()
	m.AssessmentRiskScore.WithLabelValues().Observe(overallScore)
	if requiresReview {
		m.AssessmentsForReview.WithLabelValues(reviewReason).Inc()
	}
}

func RecordQueueMessage(m *AppMetrics, topic string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.QueueMessagesConsumed.WithLabelValues(topic, status).Inc()
	m.QueueProcessDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

func RecordError(m *AppMetrics, component, errorCode string) {
	m.ErrorsTotal.WithLabelValues(component, errorCode).Inc()
}

func RecordWorkflowExecution(m *AppMetrics, status string, duration time.Duration) {
	m.WorkflowExecutionsTotal.WithLabelValues(status).Inc()
	m.WorkflowExecutionLatency.WithLabelValues(status).Observe(duration.Seconds())
}

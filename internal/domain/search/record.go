package search

import (
	"time"

	"github.com/turtacn/EntityRisk-Intelligence/internal/domain/risk"
)

// DefaultRecordTTL is how long a search record is retained before the store
// sweeps it.
const DefaultRecordTTL = 30 * 24 * time.Hour

// Processing states of a stored search record.
const (
	StatusSearchCompleted   = "SEARCH_COMPLETED"
	StatusAnalysisCompleted = "ANALYSIS_COMPLETED"
)

// Record types distinguishing raw search captures from fully analysed ones.
const (
	TypeSearchResults    = "SEARCH_RESULTS"
	TypeCompleteAnalysis = "COMPLETE_ANALYSIS"
)

// HighRelevanceThreshold is the relevance score above which a scored result
// counts toward the high-relevance metric.
const HighRelevanceThreshold = 0.7

// ResultAnalysis is the scored outcome for one search result, attached to
// the owning search record when scoring completes.
type ResultAnalysis struct {
	OriginalResult     Result                 `json:"original_result"`
	Summary            string                 `json:"summary"`
	Assessment         risk.Assessment        `json:"risk_assessment"`
	KeyFindings        []string               `json:"key_findings"`
	RiskFactors        []string               `json:"risk_factors"`
	ComplianceConcerns []string               `json:"compliance_concerns"`
	SourceCredibility  risk.SourceCredibility `json:"source_credibility"`
	RelevanceScore     float64                `json:"relevance_score"`
	ConfidenceLevel    float64                `json:"confidence_level"`
	ProcessingError    bool                   `json:"processing_error,omitempty"`
	ProcessedAt        time.Time              `json:"processing_timestamp"`
}

// ProcessingMetrics summarises a completed analysis batch.
type ProcessingMetrics struct {
	TotalProcessed     int     `json:"total_processed"`
	AverageRelevance   float64 `json:"average_relevance"`
	ProcessingDuration float64 `json:"processing_duration"`
	HighRelevanceCount int     `json:"high_relevance_count"`
}

// Record is a stored search, keyed by (Query, Timestamp).  QueryHash is a
// derived secondary index value.  A record is written once with
// SEARCH_COMPLETED status and later updated in place when analysis
// completes.
type Record struct {
	Query        string                 `json:"query"`
	Timestamp    time.Time              `json:"timestamp"`
	QueryHash    string                 `json:"query_hash"`
	RecordType   string                 `json:"record_type"`
	Results      []Result               `json:"search_results"`
	TotalResults int                    `json:"total_results"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	Status       string                 `json:"processing_status"`
	LLMAnalysis  []ResultAnalysis       `json:"llm_analysis,omitempty"`
	Metrics      *ProcessingMetrics     `json:"processing_metrics,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	CompletedAt  *time.Time             `json:"processing_completed_at,omitempty"`
	ExpiresAt    time.Time              `json:"expires_at"`
}

// NewRecord builds a freshly searched record in the SEARCH_COMPLETED state.
func NewRecord(query string, results []Result, metadata map[string]interface{}) Record {
	now := time.Now().UTC()
	return Record{
		Query:        query,
		Timestamp:    now,
		QueryHash:    QueryHash(query),
		RecordType:   TypeSearchResults,
		Results:      results,
		TotalResults: len(results),
		Metadata:     metadata,
		Status:       StatusSearchCompleted,
		CreatedAt:    now,
		UpdatedAt:    now,
		ExpiresAt:    now.Add(DefaultRecordTTL),
	}
}

// AttachAnalysis transitions the record to ANALYSIS_COMPLETED, storing the
// scored results and the derived batch metrics.
func (r *Record) AttachAnalysis(analyses []ResultAnalysis) {
	now := time.Now().UTC()
	r.LLMAnalysis = analyses
	r.Status = StatusAnalysisCompleted
	r.RecordType = TypeCompleteAnalysis
	r.CompletedAt = &now
	r.UpdatedAt = now
	r.Metrics = computeMetrics(analyses, r.Timestamp, now)
}

// computeMetrics derives the batch summary for a completed analysis.
func computeMetrics(analyses []ResultAnalysis, started, completed time.Time) *ProcessingMetrics {
	m := &ProcessingMetrics{TotalProcessed: len(analyses)}
	if len(analyses) == 0 {
		return m
	}
	var total float64
	for _, a := range analyses {
		total += a.RelevanceScore
		if a.RelevanceScore > HighRelevanceThreshold {
			m.HighRelevanceCount++
		}
	}
	m.AverageRelevance = total / float64(len(analyses))
	if d := completed.Sub(started).Seconds(); d > 0 {
		m.ProcessingDuration = d
	}
	return m
}

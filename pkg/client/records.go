package client

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// RecordsClient provides read access to stored assessments and search
// history.
type RecordsClient struct {
	client *Client
}

// RiskAssessment is a stored risk record for one scored result.
type RiskAssessment struct {
	RecordID           string    `json:"record_id"`
	Query              string    `json:"query"`
	EntityName         string    `json:"entity_name"`
	EntityType         string    `json:"entity_type"`
	Jurisdiction       string    `json:"jurisdiction"`
	Source             string    `json:"source"`
	OverallRiskScore   float64   `json:"overall_risk_score"`
	RiskLevel          string    `json:"risk_level"`
	KeyFindings        []string  `json:"key_findings"`
	RiskFactors        []string  `json:"risk_factors"`
	ComplianceConcerns []string  `json:"compliance_concerns"`
	ConfidenceLevel    float64   `json:"confidence_level"`
	ProcessingStatus   string    `json:"processing_status"`
	CreatedAt          time.Time `json:"created_at"`
	ExpiresAt          time.Time `json:"expires_at"`
}

// SearchRecord is a stored search with its results.
type SearchRecord struct {
	Query        string         `json:"query"`
	Timestamp    time.Time      `json:"timestamp"`
	QueryHash    string         `json:"query_hash"`
	RecordType   string         `json:"record_type"`
	Results      []SearchResult `json:"search_results"`
	TotalResults int            `json:"total_results"`
	Status       string         `json:"processing_status"`
	CreatedAt    time.Time      `json:"created_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
}

// StoreStatistics aggregates record counts and risk levels across the
// store.
type StoreStatistics struct {
	TotalSearchRecords int64            `json:"total_search_records"`
	TotalRiskRecords   int64            `json:"total_risk_records"`
	RecordsByStatus    map[string]int64 `json:"records_by_status"`
	RecordsByType      map[string]int64 `json:"records_by_type"`
	RiskLevelCounts    map[string]int64 `json:"risk_level_counts"`
	AverageRiskScore   float64          `json:"average_risk_score"`
}

// AssessmentFilter narrows ListAssessments results.
type AssessmentFilter struct {
	EntityName string
	Level      string
	Limit      int
}

type assessmentsResponse struct {
	Assessments []RiskAssessment `json:"assessments"`
	Count       int              `json:"count"`
}

// ListAssessments returns stored risk assessments, optionally filtered
// by entity name and risk level.
func (rc *RecordsClient) ListAssessments(ctx context.Context, filter *AssessmentFilter) ([]RiskAssessment, error) {
	params := url.Values{}
	if filter != nil {
		if filter.EntityName != "" {
			params.Set("entity", filter.EntityName)
		}
		if filter.Level != "" {
			params.Set("level", filter.Level)
		}
		if filter.Limit > 0 {
			params.Set("limit", strconv.Itoa(filter.Limit))
		}
	}

	path := "/api/v1/risk/assessments"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp assessmentsResponse
	if err := rc.client.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Assessments, nil
}

type recentSearchesResponse struct {
	Searches []SearchRecord `json:"searches"`
	Count    int            `json:"count"`
	DaysBack int            `json:"days_back"`
}

// RecentSearches returns search records from the last daysBack days.
// Zero values fall back to the server defaults.
func (rc *RecordsClient) RecentSearches(ctx context.Context, daysBack, limit int) ([]SearchRecord, error) {
	params := url.Values{}
	if daysBack > 0 {
		params.Set("days", strconv.Itoa(daysBack))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/v1/searches/recent"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp recentSearchesResponse
	if err := rc.client.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Searches, nil
}

// Statistics returns store-wide record and risk level counts.
func (rc *RecordsClient) Statistics(ctx context.Context) (*StoreStatistics, error) {
	var stats StoreStatistics
	if err := rc.client.get(ctx, "/api/v1/statistics", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

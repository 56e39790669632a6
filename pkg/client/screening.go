package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

// ScreeningClient provides access to screening operations.
type ScreeningClient struct {
	client *Client
}

// Screening request modes.
const (
	ModeSearchOnly      = "search_only"
	ModeAsync           = "async"
	ModeSync            = "sync"
	ModeEntityScreening = "entity_screening"
)

// ScreenRequest describes a screening run.
type ScreenRequest struct {
	Query          string `json:"query,omitempty"`
	EntityName     string `json:"entity_name,omitempty"`
	Category       string `json:"category,omitempty"`
	Mode           string `json:"mode,omitempty"`
	ResultCount    int    `json:"result_count,omitempty"`
	MaxQueries     int    `json:"max_queries,omitempty"`
	TriggerScoring bool   `json:"trigger_scoring,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
}

// SearchResult is one adverse-media search hit.
type SearchResult struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
	Query    string `json:"query,omitempty"`
}

// SideEffect reports a best-effort action taken alongside a screening
// run, such as a store write or a scoring enqueue.
type SideEffect struct {
	Name      string `json:"name"`
	Succeeded bool   `json:"succeeded"`
	Detail    string `json:"detail,omitempty"`
}

// CategoryOutcome summarises one category of an entity screening run.
type CategoryOutcome struct {
	Category        string         `json:"category"`
	QueriesExecuted int            `json:"queries_executed"`
	QueriesFailed   int            `json:"queries_failed"`
	Results         []SearchResult `json:"results"`
	Stored          bool           `json:"stored"`
	ScoringQueued   bool           `json:"scoring_queued"`
}

// ScreeningOutcome is the per-entity result of an entity screening run.
type ScreeningOutcome struct {
	EntityName   string            `json:"entity_name"`
	Categories   []CategoryOutcome `json:"categories"`
	TotalResults int               `json:"total_results"`
}

// ExecutionRef identifies a workflow execution started by a sync run.
type ExecutionRef struct {
	ExecutionID  string `json:"execution_id"`
	StateMachine string `json:"state_machine"`
}

// ScreenOutcome is the response of the screen endpoint.
type ScreenOutcome struct {
	RequestID   string            `json:"request_id"`
	Mode        string            `json:"mode"`
	Accepted    bool              `json:"accepted,omitempty"`
	Message     string            `json:"message,omitempty"`
	Query       string            `json:"query,omitempty"`
	Timestamp   time.Time         `json:"timestamp,omitempty"`
	QueryHash   string            `json:"query_hash,omitempty"`
	Results     []SearchResult    `json:"results,omitempty"`
	Screening   *ScreeningOutcome `json:"screening,omitempty"`
	Execution   *ExecutionRef     `json:"execution,omitempty"`
	Output      json.RawMessage   `json:"output,omitempty"`
	SideEffects []SideEffect      `json:"side_effects,omitempty"`
}

// Screen runs a screening request. Depending on the mode the outcome
// carries search results, an entity screening summary, or a workflow
// execution reference.
func (sc *ScreeningClient) Screen(ctx context.Context, req *ScreenRequest) (*ScreenOutcome, error) {
	if req == nil {
		return nil, errors.InvalidParam("request is required")
	}

	var outcome ScreenOutcome
	if err := sc.client.post(ctx, "/api/v1/screen", req, &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}

package orchestrator

import (
	"strings"

	"github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

// Mode selects the processing path for a screening request.
type Mode string

const (
	// ModeSearchOnly runs the search and stores the results; no analysis.
	ModeSearchOnly Mode = "search_only"
	// ModeAsync stores the search results and queues them for scoring.
	ModeAsync Mode = "async"
	// ModeSync drives a workflow execution and waits for its outcome.
	ModeSync Mode = "sync"
	// ModeEntityScreening fans out category keyword queries for an entity.
	ModeEntityScreening Mode = "entity_screening"
)

// Query bounds applied after sanitisation.
const (
	MinQueryLen = 3
	MaxQueryLen = 500

	MinResultCount = 1
	MaxResultCount = 100
)

// unsafeQueryChars are stripped from inbound query text before validation.
const unsafeQueryChars = `<>"'`

// Request is one screening invocation. It is validated once on entry and
// treated as read-only afterwards.
type Request struct {
	Query       string `json:"query"`
	EntityName  string `json:"entity_name,omitempty"`
	Category    string `json:"category,omitempty"`
	Mode        Mode   `json:"mode"`
	ResultCount int    `json:"result_count"`
	MaxQueries  int    `json:"max_queries,omitempty"`
	// TriggerScoring asks entity screening to queue its results for
	// analysis. Async mode always queues.
	TriggerScoring bool `json:"trigger_scoring,omitempty"`

	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"-"`
}

// SanitizeQuery removes unsafe characters and surrounding whitespace.
func SanitizeQuery(query string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(unsafeQueryChars, r) {
			return -1
		}
		return r
	}, query)
	return strings.TrimSpace(cleaned)
}

// Normalize sanitises free-text fields and fills defaults. It must run
// before Validate.
func (r *Request) Normalize() {
	r.Query = SanitizeQuery(r.Query)
	r.EntityName = SanitizeQuery(r.EntityName)
	r.Category = strings.TrimSpace(strings.ToLower(r.Category))
	if r.Mode == "" {
		r.Mode = ModeSearchOnly
	}
	if r.ResultCount == 0 {
		r.ResultCount = 5
	}
}

// Validate checks bounds and the mode whitelist. Entity screening
// validates the entity name instead of the query text.
func (r *Request) Validate() error {
	switch r.Mode {
	case ModeSearchOnly, ModeAsync, ModeSync, ModeEntityScreening:
	default:
		return errors.New(errors.ErrCodeScreeningInvalidMode, "unsupported processing mode").WithDetail(string(r.Mode))
	}

	if r.ResultCount < MinResultCount || r.ResultCount > MaxResultCount {
		return errors.Newf(errors.ErrCodeScreeningInvalidCount,
			"result count must be between %d and %d", MinResultCount, MaxResultCount)
	}

	if r.Mode == ModeEntityScreening {
		if r.EntityName == "" {
			return errors.New(errors.ErrCodeScreeningEmptyEntity, "entity name is required for entity screening")
		}
		return nil
	}

	if len(r.Query) < MinQueryLen || len(r.Query) > MaxQueryLen {
		return errors.Newf(errors.ErrCodeScreeningInvalidQuery,
			"query length must be between %d and %d characters", MinQueryLen, MaxQueryLen)
	}
	return nil
}

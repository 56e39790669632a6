package risk

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// DefaultRecordTTL is how long a risk record is retained before the store
// sweeps it.
const DefaultRecordTTL = 90 * 24 * time.Hour

// StatusCompleted marks a fully scored record.
const StatusCompleted = "COMPLETED"

// Record is a single append-only risk assessment outcome for an entity,
// derived from one search result.  Record IDs are random UUIDs so that two
// assessments of the same query in the same instant can never collide.
type Record struct {
	RecordID           string     `json:"record_id"`
	Query              string     `json:"query"`
	EntityName         string     `json:"entity_name"`
	EntityType         string     `json:"entity_type"`
	Jurisdiction       string     `json:"jurisdiction"`
	Source             string     `json:"source"`
	Assessment         Assessment `json:"risk_assessment"`
	OverallRiskScore   float64    `json:"overall_risk_score"`
	RiskLevel          Level      `json:"risk_level"`
	KeyFindings        []string   `json:"key_findings"`
	RiskFactors        []string   `json:"risk_factors"`
	ComplianceConcerns []string   `json:"compliance_concerns"`
	ConfidenceLevel    float64    `json:"confidence_level"`
	ProcessingStatus   string     `json:"processing_status"`
	CreatedAt          time.Time  `json:"created_at"`
	ExpiresAt          time.Time  `json:"expires_at"`
}

// NewRecord builds a completed Record with a fresh UUID and the default
// retention window.
func NewRecord(query, entityName, entityType, jurisdiction, source string) Record {
	now := time.Now().UTC()
	if entityType == "" {
		entityType = "unknown"
	}
	if jurisdiction == "" {
		jurisdiction = "unknown"
	}
	if source == "" {
		source = "unknown"
	}
	return Record{
		RecordID:         uuid.NewString(),
		Query:            query,
		EntityName:       entityName,
		EntityType:       entityType,
		Jurisdiction:     jurisdiction,
		Source:           source,
		ProcessingStatus: StatusCompleted,
		CreatedAt:        now,
		ExpiresAt:        now.Add(DefaultRecordTTL),
	}
}

// RequiresReview applies the manual-review policy to the record's own
// fields.
func (r Record) RequiresReview() bool {
	return RequiresReview(r.RiskLevel, r.OverallRiskScore, r.ConfidenceLevel)
}

// ExtractEntityName derives a display name for the screened entity.  A name
// carried by the source data wins; otherwise the title does; as a last
// resort the first three words of the query are title-cased.
func ExtractEntityName(entityName, title, query string) string {
	if entityName != "" {
		return entityName
	}
	if title != "" {
		return title
	}
	words := strings.Fields(query)
	if len(words) > 3 {
		words = words[:3]
	}
	for i, w := range words {
		words[i] = titleCase(w)
	}
	return strings.Join(words, " ")
}

// titleCase upper-cases the first rune and lower-cases the rest.
func titleCase(w string) string {
	runes := []rune(strings.ToLower(w))
	if len(runes) == 0 {
		return w
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

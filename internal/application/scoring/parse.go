package scoring

import (
	"encoding/json"
	"strings"

	"github.com/turtacn/EntityRisk-Intelligence/internal/domain/risk"
	"github.com/turtacn/EntityRisk-Intelligence/internal/domain/search"
	"github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

// modelAnalysis is the JSON document the model is instructed to emit.
// Numeric fields default to the neutral 0.5 before decoding so a partial
// document degrades instead of zeroing out.
type modelAnalysis struct {
	Summary            string                 `json:"summary"`
	Assessment         risk.Assessment        `json:"risk_assessment"`
	KeyFindings        []string               `json:"key_findings"`
	RiskFactors        []string               `json:"risk_factors"`
	ComplianceConcerns []string               `json:"compliance_concerns"`
	SourceCredibility  risk.SourceCredibility `json:"source_credibility"`
	RelevanceScore     float64                `json:"relevance_score"`
	ConfidenceLevel    float64                `json:"confidence_level"`
}

func neutralModelAnalysis() modelAnalysis {
	return modelAnalysis{
		Assessment: risk.Assessment{
			OverallRiskScore:    0.5,
			RiskLevel:           risk.LevelMedium,
			FinancialCrimesRisk: 0.5,
			CorruptionRisk:      0.5,
			RegulatoryRisk:      0.5,
			ReputationalRisk:    0.5,
		},
		SourceCredibility: risk.SourceCredibility{
			CredibilityScore: 0.5,
			SourceType:       "unknown",
			PublicationDate:  "unknown",
		},
		RelevanceScore:  0.5,
		ConfidenceLevel: 0.5,
	}
}

// parseAnalysis extracts the JSON object from a raw model response. Models
// wrap their JSON in prose, so the parse window runs from the first "{" to
// the last "}". Anything that does not decode inside that window is a
// parse failure; the caller substitutes the fallback analysis.
func parseAnalysis(raw string) (modelAnalysis, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return modelAnalysis{}, errors.New(errors.ErrCodeAIResponseMalformed, "no JSON object in model response")
	}

	parsed := neutralModelAnalysis()
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return modelAnalysis{}, errors.Wrap(err, errors.ErrCodeAIResponseMalformed, "failed to decode model response")
	}
	return parsed, nil
}

// fallbackAnalysis is the analysis recorded when model output cannot be
// parsed: neutral scores, low confidence, and findings that route the
// record to manual review.
func fallbackAnalysis(raw string) modelAnalysis {
	a := neutralModelAnalysis()
	a.Summary = search.Truncate(raw, 200)
	if a.Summary == "" {
		a.Summary = "No summary available"
	}
	a.KeyFindings = []string{"Parsing error - manual review required"}
	a.RiskFactors = []string{"Unable to parse model response"}
	a.ComplianceConcerns = []string{"Manual review recommended"}
	a.ConfidenceLevel = 0.3
	return a
}

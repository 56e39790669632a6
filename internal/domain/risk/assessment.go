// Package risk contains the pure domain model for entity risk assessment:
// risk levels, dimension scores, the weighted composite calculation, and the
// manual-review policy applied to completed assessments.
package risk

import (
	"math"
)

// Level classifies an assessment's severity.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
	LevelUnknown  Level = "UNKNOWN"
)

// Recognised reports whether l is one of the four defined severity bands.
// LevelUnknown and arbitrary strings are not recognised; downstream policy
// treats them conservatively.
func (l Level) Recognised() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh, LevelCritical:
		return true
	}
	return false
}

// LevelFromScore converts a numeric risk score to a severity band.
func LevelFromScore(score float64) Level {
	switch {
	case score >= 0.9:
		return LevelCritical
	case score >= 0.7:
		return LevelHigh
	case score >= 0.4:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Dimension weights for the composite score.  They total 1.0; financial
// crimes carries the highest weight.
const (
	WeightFinancialCrimes = 0.35
	WeightCorruption      = 0.25
	WeightRegulatory      = 0.25
	WeightReputational    = 0.15
)

// Assessment is the per-result risk scoring outcome.  The overall score and
// level come from the analyst model; the composite score is always
// recomputed locally from the four dimensions so a miscalibrated model
// cannot smuggle in its own aggregate.
type Assessment struct {
	OverallRiskScore    float64 `json:"overall_risk_score"`
	RiskLevel           Level   `json:"risk_level"`
	FinancialCrimesRisk float64 `json:"financial_crimes_risk"`
	CorruptionRisk      float64 `json:"corruption_risk"`
	RegulatoryRisk      float64 `json:"regulatory_risk"`
	ReputationalRisk    float64 `json:"reputational_risk"`
	CompositeRiskScore  float64 `json:"composite_risk_score"`
}

// DefaultAssessment returns the neutral assessment used when model output
// cannot be trusted: every dimension at 0.5, MEDIUM level, with the
// composite already populated.
func DefaultAssessment() Assessment {
	a := Assessment{
		OverallRiskScore:    0.5,
		RiskLevel:           LevelMedium,
		FinancialCrimesRisk: 0.5,
		CorruptionRisk:      0.5,
		RegulatoryRisk:      0.5,
		ReputationalRisk:    0.5,
	}
	a.CompositeRiskScore = a.Composite()
	return a
}

// Composite returns the weighted composite of the four dimension scores,
// clamped to [0, 1] and rounded to three decimal places.
func (a Assessment) Composite() float64 {
	score := a.FinancialCrimesRisk*WeightFinancialCrimes +
		a.CorruptionRisk*WeightCorruption +
		a.RegulatoryRisk*WeightRegulatory +
		a.ReputationalRisk*WeightReputational

	score = math.Max(0, math.Min(1, score))
	return math.Round(score*1000) / 1000
}

// SourceCredibility describes how trustworthy the underlying source is.
type SourceCredibility struct {
	CredibilityScore float64 `json:"credibility_score"`
	SourceType       string  `json:"source_type"`
	PublicationDate  string  `json:"publication_date"`
}

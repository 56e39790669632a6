package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromScore(t *testing.T) {
	tests := []struct {
		score float64
		want  Level
	}{
		{0.0, LevelLow},
		{0.39, LevelLow},
		{0.4, LevelMedium},
		{0.69, LevelMedium},
		{0.7, LevelHigh},
		{0.89, LevelHigh},
		{0.9, LevelCritical},
		{1.0, LevelCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFromScore(tt.score), "score %v", tt.score)
	}
}

func TestLevelRecognised(t *testing.T) {
	for _, l := range []Level{LevelLow, LevelMedium, LevelHigh, LevelCritical} {
		assert.True(t, l.Recognised())
	}
	assert.False(t, LevelUnknown.Recognised())
	assert.False(t, Level("SEVERE").Recognised())
	assert.False(t, Level("").Recognised())
}

func TestCompositeWeighting(t *testing.T) {
	a := Assessment{
		FinancialCrimesRisk: 0.8,
		CorruptionRisk:      0.6,
		RegulatoryRisk:      0.7,
		ReputationalRisk:    0.9,
	}
	// 0.8*0.35 + 0.6*0.25 + 0.7*0.25 + 0.9*0.15 = 0.74
	assert.InDelta(t, 0.74, a.Composite(), 1e-9)
}

func TestCompositeUniformDimensions(t *testing.T) {
	a := Assessment{
		FinancialCrimesRisk: 0.5,
		CorruptionRisk:      0.5,
		RegulatoryRisk:      0.5,
		ReputationalRisk:    0.5,
	}
	assert.Equal(t, 0.5, a.Composite())
}

func TestCompositeClampAndRound(t *testing.T) {
	over := Assessment{
		FinancialCrimesRisk: 2.0,
		CorruptionRisk:      2.0,
		RegulatoryRisk:      2.0,
		ReputationalRisk:    2.0,
	}
	assert.Equal(t, 1.0, over.Composite())

	under := Assessment{
		FinancialCrimesRisk: -1,
		CorruptionRisk:      -1,
		RegulatoryRisk:      -1,
		ReputationalRisk:    -1,
	}
	assert.Equal(t, 0.0, under.Composite())

	uneven := Assessment{
		FinancialCrimesRisk: 0.123456,
		CorruptionRisk:      0.1,
		RegulatoryRisk:      0.1,
		ReputationalRisk:    0.1,
	}
	got := uneven.Composite()
	assert.Equal(t, got, float64(int(got*1000))/1000, "composite must carry at most 3 decimals")
}

func TestCompositeIgnoresModelAggregate(t *testing.T) {
	a := Assessment{
		OverallRiskScore:    0.99, // model's own aggregate must not influence composite
		FinancialCrimesRisk: 0.1,
		CorruptionRisk:      0.1,
		RegulatoryRisk:      0.1,
		ReputationalRisk:    0.1,
	}
	assert.InDelta(t, 0.1, a.Composite(), 1e-9)
}

func TestDefaultAssessment(t *testing.T) {
	a := DefaultAssessment()
	assert.Equal(t, LevelMedium, a.RiskLevel)
	assert.Equal(t, 0.5, a.OverallRiskScore)
	assert.Equal(t, 0.5, a.FinancialCrimesRisk)
	assert.Equal(t, 0.5, a.CompositeRiskScore)
}

func TestWeightsSumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, WeightFinancialCrimes+WeightCorruption+WeightRegulatory+WeightReputational, 1e-9)
}

package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiresReview(t *testing.T) {
	tests := []struct {
		name       string
		level      Level
		score      float64
		confidence float64
		want       bool
	}{
		{"high level", LevelHigh, 0.5, 0.9, true},
		{"critical level", LevelCritical, 0.2, 0.9, true},
		{"score at threshold", LevelLow, 0.8, 0.9, true},
		{"score above threshold", LevelMedium, 0.95, 0.9, true},
		{"low confidence", LevelLow, 0.1, 0.59, true},
		{"unknown level", LevelUnknown, 0.1, 0.9, true},
		{"unrecognised level", Level("SEVERE"), 0.1, 0.9, true},
		{"calm medium", LevelMedium, 0.5, 0.9, false},
		{"calm low", LevelLow, 0.1, 0.6, false},
		{"confidence exactly at floor", LevelLow, 0.1, 0.6, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RequiresReview(tt.level, tt.score, tt.confidence))
		})
	}
}

func TestPriorityFor(t *testing.T) {
	assert.Equal(t, PriorityHigh, PriorityFor(LevelCritical))
	assert.Equal(t, PriorityHigh, PriorityFor(LevelHigh))
	assert.Equal(t, PriorityNormal, PriorityFor(LevelMedium))
	assert.Equal(t, PriorityLow, PriorityFor(LevelLow))
	assert.Equal(t, PriorityNormal, PriorityFor(LevelUnknown))
	assert.Equal(t, PriorityNormal, PriorityFor(Level("WEIRD")))
}

func TestIsHighRisk(t *testing.T) {
	assert.True(t, IsHighRisk(LevelHigh))
	assert.True(t, IsHighRisk(LevelCritical))
	assert.False(t, IsHighRisk(LevelMedium))
	assert.False(t, IsHighRisk(LevelLow))
	assert.False(t, IsHighRisk(LevelUnknown))
}

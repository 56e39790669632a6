package risk

// Notification routing thresholds.
const (
	// ReviewScoreThreshold is the overall score at or above which an
	// assessment always goes to manual review.
	ReviewScoreThreshold = 0.8

	// ReviewConfidenceFloor is the confidence below which an assessment goes
	// to manual review regardless of its level.
	ReviewConfidenceFloor = 0.6
)

// Priority classifies notification urgency.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
)

// RequiresReview reports whether an assessment must be routed to manual
// review.  An unrecognised level is treated as requiring review: an
// assessment whose severity cannot be classified must never pass silently.
func RequiresReview(level Level, overallScore, confidence float64) bool {
	return level == LevelHigh ||
		level == LevelCritical ||
		overallScore >= ReviewScoreThreshold ||
		confidence < ReviewConfidenceFloor ||
		!level.Recognised()
}

// PriorityFor maps a risk level to its notification priority.  Unrecognised
// levels map to NORMAL.
func PriorityFor(level Level) Priority {
	switch level {
	case LevelCritical, LevelHigh:
		return PriorityHigh
	case LevelLow:
		return PriorityLow
	default:
		return PriorityNormal
	}
}

// IsHighRisk reports whether a level triggers the high-risk alert path.
func IsHighRisk(level Level) bool {
	return level == LevelHigh || level == LevelCritical
}

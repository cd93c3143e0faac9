package evaluator

import "daritana-compliance/models"

const (
	// MaxScore is the score of a building with no violations
	MaxScore = 100

	// CriticalPenalty is deducted for each critical violation
	CriticalPenalty = 15

	// StandardPenalty is deducted for each non-critical violation
	StandardPenalty = 5

	// ResolveCredit is restored when a violation is resolved
	ResolveCredit = 10
)

// ScoreDelta returns the points deducted for a violation of the given severity
func ScoreDelta(severity models.Severity) int {
	if severity == models.SeverityCritical {
		return CriticalPenalty
	}
	return StandardPenalty
}

// ClampScore bounds a score to [0, MaxScore]
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Score computes the compliance score for a set of violations.
// Start: 100, -15 per critical, -5 per other severity, clamped at 0.
func Score(violations []models.Violation) int {
	score := MaxScore
	for _, v := range violations {
		score -= ScoreDelta(v.Severity)
	}
	return ClampScore(score)
}

// Deduct applies the penalty for one additional violation
func Deduct(score int, severity models.Severity) int {
	return ClampScore(score - ScoreDelta(severity))
}

// Restore applies the credit for one resolved violation
func Restore(score int) int {
	return ClampScore(score + ResolveCredit)
}

package forecast

// Confidence rule table. These thresholds are consumed by dashboards and must not drift.
const (
	highConfidenceMinPoints   = 12
	highConfidenceMinR2       = 0.7
	mediumConfidenceMinPoints = 6
	mediumConfidenceMinR2     = 0.4
)

// ClassifyConfidence maps sample size and regression fit to a confidence tier
func ClassifyConfidence(n int, r2 float64) Confidence {
	switch {
	case n >= highConfidenceMinPoints && r2 > highConfidenceMinR2:
		return ConfidenceHigh
	case n >= mediumConfidenceMinPoints && r2 > mediumConfidenceMinR2:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Degrade lowers the tier by one step; low stays low
func (c Confidence) Degrade() Confidence {
	switch c {
	case ConfidenceHigh:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

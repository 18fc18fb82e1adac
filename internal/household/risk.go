package household

import "fmt"

// Display derivations for the dashboard. These are pure mappings from a
// household's classification to presentation attributes; the UI applies
// them without further logic. All of them are total: unrecognised inputs
// degrade to a neutral style rather than failing.

// RiskStyle returns the badge palette class for a risk level.
func RiskStyle(level RiskLevel) string {
	switch level {
	case RiskLow:
		return "bg-green-100 text-green-800"
	case RiskMedium:
		return "bg-yellow-100 text-yellow-800"
	case RiskHigh:
		return "bg-red-100 text-red-800"
	default:
		return "bg-gray-100 text-gray-800"
	}
}

// RiskLabel returns the badge text for a risk level.
func RiskLabel(level RiskLevel) string {
	switch level {
	case RiskLow:
		return "Low Risk"
	case RiskMedium:
		return "Medium Risk"
	case RiskHigh:
		return "High Risk"
	default:
		return "Unknown"
	}
}

// Safety score tier boundaries. The lower bound of each tier is inclusive:
// a score of exactly 80 is in the high tier, exactly 60 in the mid tier.
const (
	safetyTierHigh = 80
	safetyTierMid  = 60
)

// SafetyBarStyle returns the gradient class for a safety score bar.
func SafetyBarStyle(score int) string {
	switch {
	case score >= safetyTierHigh:
		return "from-green-500 to-emerald-500"
	case score >= safetyTierMid:
		return "from-yellow-500 to-orange-500"
	default:
		return "from-red-500 to-orange-500"
	}
}

// SafetyBarWidth returns the progress bar width for a safety score,
// clamped to the 0-100 range.
func SafetyBarWidth(score int) string {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return fmt.Sprintf("%d%%", score)
}

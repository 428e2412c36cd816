package agents

import "github.com/arise-platform/toppicks-engine/internal/domain"

// RecommendationFromBlend maps a blend_score to a Recommendation label
// (§4.5 step 3). Thresholds are symmetric around the neutral midpoint (50).
func RecommendationFromBlend(blendScore float64) domain.Recommendation {
	switch {
	case blendScore >= 80:
		return domain.RecommendationStrongBuy
	case blendScore >= 60:
		return domain.RecommendationBuy
	case blendScore > 45:
		return domain.RecommendationNeutral
	case blendScore >= 40:
		return domain.RecommendationHold
	case blendScore >= 20:
		return domain.RecommendationSell
	default:
		return domain.RecommendationStrongSell
	}
}

// ConfidenceLabel derives an overall blend confidence from the spread of
// individual agent confidences: High only when a majority of contributing
// agents reported High, Low when a majority reported Low, Medium otherwise.
func ConfidenceLabel(results []Result) Confidence {
	var high, low, total int
	for _, r := range results {
		switch r.Confidence {
		case ConfidenceHigh:
			high++
		case ConfidenceLow:
			low++
		}
		total++
	}
	if total == 0 {
		return ConfidenceMedium
	}
	if high*2 > total {
		return ConfidenceHigh
	}
	if low*2 > total {
		return ConfidenceLow
	}
	return ConfidenceMedium
}

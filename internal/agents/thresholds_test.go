package agents

import (
	"testing"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRecommendationFromBlend(t *testing.T) {
	cases := []struct {
		blend float64
		want  domain.Recommendation
	}{
		{85, domain.RecommendationStrongBuy},
		{60, domain.RecommendationBuy},
		{50, domain.RecommendationNeutral},
		{40, domain.RecommendationHold},
		{20, domain.RecommendationSell},
		{5, domain.RecommendationStrongSell},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, RecommendationFromBlend(c.blend))
	}
}

func TestConfidenceLabelMajorityHigh(t *testing.T) {
	results := []Result{
		{Confidence: ConfidenceHigh}, {Confidence: ConfidenceHigh}, {Confidence: ConfidenceLow},
	}
	assert.Equal(t, ConfidenceHigh, ConfidenceLabel(results))
}

func TestConfidenceLabelMajorityLow(t *testing.T) {
	results := []Result{
		{Confidence: ConfidenceLow}, {Confidence: ConfidenceLow}, {Confidence: ConfidenceHigh},
	}
	assert.Equal(t, ConfidenceLow, ConfidenceLabel(results))
}

func TestConfidenceLabelNoMajorityIsMedium(t *testing.T) {
	results := []Result{{Confidence: ConfidenceHigh}, {Confidence: ConfidenceLow}}
	assert.Equal(t, ConfidenceMedium, ConfidenceLabel(results))
}

func TestConfidenceLabelEmptyIsMedium(t *testing.T) {
	assert.Equal(t, ConfidenceMedium, ConfidenceLabel(nil))
}

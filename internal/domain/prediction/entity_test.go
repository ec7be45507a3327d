package prediction

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholds_Classify(t *testing.T) {
	th := Thresholds{Medium: 20, High: 50}

	tests := []struct {
		ir       float64
		expected RiskTier
	}{
		{ir: math.Inf(-1), expected: TierLow},
		{ir: -5, expected: TierLow},
		{ir: 0, expected: TierLow},
		{ir: 19.999, expected: TierLow},
		{ir: 20, expected: TierMedium},
		{ir: 49.999, expected: TierMedium},
		{ir: 50, expected: TierHigh},
		{ir: 1e9, expected: TierHigh},
		{ir: math.Inf(1), expected: TierHigh},
		{ir: math.NaN(), expected: TierLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, th.Classify(tt.ir), "ir=%v", tt.ir)
	}
}

func TestThresholds_ExactlyOneTier(t *testing.T) {
	th := Thresholds{Medium: 20, High: 50}

	for ir := -100.0; ir <= 200; ir += 0.25 {
		tier := th.Classify(ir)
		assert.True(t, tier.Valid())

		matches := 0
		if ir < th.Medium {
			matches++
			assert.Equal(t, TierLow, tier)
		}
		if ir >= th.Medium && ir < th.High {
			matches++
			assert.Equal(t, TierMedium, tier)
		}
		if ir >= th.High {
			matches++
			assert.Equal(t, TierHigh, tier)
		}
		assert.Equal(t, 1, matches, "ir=%v", ir)
	}
}

func TestRiskTier_Label(t *testing.T) {
	assert.Equal(t, "Rendah", TierLow.Label())
	assert.Equal(t, "Sedang", TierMedium.Label())
	assert.Equal(t, "Tinggi", TierHigh.Label())
	assert.False(t, RiskTier("extreme").Valid())
}

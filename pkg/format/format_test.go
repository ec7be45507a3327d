package format

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		decimals int
		expected string
	}{
		{name: "zero no decimals", value: 0, decimals: 0, expected: "0"},
		{name: "zero one decimal", value: 0, decimals: 1, expected: "0.0"},
		{name: "thousands", value: 1234567, decimals: 0, expected: "1,234,567"},
		{name: "rounds half up", value: 1234.56, decimals: 1, expected: "1,234.6"},
		{name: "small negative", value: -0.5, decimals: 1, expected: "-0.5"},
		{name: "negative thousands", value: -2500.25, decimals: 2, expected: "-2,500.25"},
		{name: "negative decimals clamp", value: 12.7, decimals: -3, expected: "13"},
		{name: "beyond int64", value: 9.3e18, decimals: 0, expected: "9,300,000,000,000,000,000"},
		{name: "large negative", value: -1e20, decimals: 1, expected: "-100,000,000,000,000,000,000.0"},
		{name: "nan", value: math.NaN(), decimals: 1, expected: Placeholder},
		{name: "inf", value: math.Inf(1), decimals: 0, expected: Placeholder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Number(tt.value, tt.decimals))
		})
	}
}

func TestPercentAndUnit(t *testing.T) {
	assert.Equal(t, "0.0%", Percent(0, 1))
	assert.Equal(t, "87.3%", Percent(87.25, 1))
	assert.Equal(t, Placeholder, Percent(math.NaN(), 1))

	assert.Equal(t, "2,150 mm", WithUnit(2150, 0, "mm"))
	assert.Equal(t, "0 Ton", WithUnit(0, 0, "Ton"))
	assert.Equal(t, "15", WithUnit(15, 0, ""))
	assert.Equal(t, Placeholder, WithUnit(math.Inf(-1), 0, "mm"))
}

func TestChange(t *testing.T) {
	assert.Equal(t, NotApplicable, Change(10, 0))
	assert.Equal(t, NotApplicable, Change(0, math.NaN()))
	assert.Equal(t, "0.0%", Change(20, 20))
	assert.Equal(t, "-100.0%", Change(0, 40))
	assert.Equal(t, "+50.0%", Change(30, 20))
	assert.Equal(t, "-25.0%", Change(15, 20))
}

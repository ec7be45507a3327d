package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbdwatch/pkg/errors"
)

// stump splits feature 0 at 10: left leaf 1, right leaf 3
func stump() Tree {
	return Tree{
		ChildrenLeft:  []int{1, LeafMarker, LeafMarker},
		ChildrenRight: []int{2, LeafMarker, LeafMarker},
		Feature:       []int{0, -2, -2},
		Threshold:     []float64{10, -2, -2},
		Value:         []float64{2, 1, 3},
	}
}

func validBundle() *Bundle {
	return &Bundle{
		PrimaryName: "rf_80_20",
		Models: []Variant{
			{Name: "rf_70_30", Split: "70:30", Features: []string{"a"}, Forest: Forest{Trees: []Tree{stump()}}},
			{Name: "rf_80_20", Split: "80:20", Features: []string{"a"}, Forest: Forest{Trees: []Tree{stump()}}},
		},
	}
}

func TestBundle_PrimaryAndLookup(t *testing.T) {
	b := validBundle()
	require.NoError(t, b.Validate())

	assert.Equal(t, "rf_80_20", b.Primary().Name)
	assert.Equal(t, []string{"rf_70_30", "rf_80_20"}, b.Names())

	b.PrimaryName = ""
	assert.Equal(t, "rf_70_30", b.Primary().Name)

	_, ok := b.Model("rf_90_10")
	assert.False(t, ok)
}

func TestBundle_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *Bundle)
	}{
		{name: "no models", mutate: func(b *Bundle) { b.Models = nil }},
		{name: "duplicate name", mutate: func(b *Bundle) { b.Models[1].Name = "rf_70_30"; b.PrimaryName = "" }},
		{name: "empty features", mutate: func(b *Bundle) { b.Models[0].Features = nil }},
		{name: "importance length", mutate: func(b *Bundle) { b.Models[0].FeatureImportances = []float64{0.5, 0.5} }},
		{name: "unknown primary", mutate: func(b *Bundle) { b.PrimaryName = "rf_90_10" }},
		{name: "no trees nor onnx", mutate: func(b *Bundle) { b.Models[0].Forest.Trees = nil }},
		{name: "ragged tree", mutate: func(b *Bundle) { b.Models[0].Forest.Trees[0].Value = []float64{1} }},
		{name: "child out of range", mutate: func(b *Bundle) { b.Models[0].Forest.Trees[0].ChildrenRight[0] = 7 }},
		{name: "feature out of range", mutate: func(b *Bundle) { b.Models[0].Forest.Trees[0].Feature[0] = 3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBundle()
			tt.mutate(b)

			err := b.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidInput))
		})
	}
}

func TestBundle_ONNXOnlyVariantIsValid(t *testing.T) {
	b := validBundle()
	b.Models[0].Forest.Trees = nil
	b.Models[0].ONNXPath = "rf_70_30.onnx"

	assert.NoError(t, b.Validate())
}

func TestMetrics_TrainTestGap(t *testing.T) {
	tests := []struct {
		name string
		body string
		want float64
	}{
		{name: "computed when absent", body: `{"r2_train": 0.91, "r2_test": 0.72}`, want: 0.19},
		{name: "explicit zero kept", body: `{"r2_train": 0.91, "r2_test": 0.72, "train_test_gap": 0}`, want: 0},
		{name: "explicit value kept", body: `{"r2_train": 0.88, "r2_test": 0.75, "train_test_gap": 0.2}`, want: 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Metrics
			require.NoError(t, json.Unmarshal([]byte(tt.body), &m))
			assert.InDelta(t, tt.want, m.TrainTestGap, 1e-9)
			assert.NotZero(t, m.R2Train)
		})
	}
}

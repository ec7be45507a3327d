package ml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbdwatch/internal/domain/model"
	"dbdwatch/pkg/errors"
)

// stump splits feature `feature` at `threshold` into leaves lo / hi
func stump(feature int, threshold, lo, hi float64) model.Tree {
	return model.Tree{
		ChildrenLeft:  []int{1, model.LeafMarker, model.LeafMarker},
		ChildrenRight: []int{2, model.LeafMarker, model.LeafMarker},
		Feature:       []int{feature, -2, -2},
		Threshold:     []float64{threshold, -2, -2},
		Value:         []float64{(lo + hi) / 2, lo, hi},
	}
}

// deepTree: x0 <= 5 ? (x1 <= 1 ? 10 : 20) : 30
func deepTree() model.Tree {
	return model.Tree{
		ChildrenLeft:  []int{1, 2, model.LeafMarker, model.LeafMarker, model.LeafMarker},
		ChildrenRight: []int{4, 3, model.LeafMarker, model.LeafMarker, model.LeafMarker},
		Feature:       []int{0, 1, -2, -2, -2},
		Threshold:     []float64{5, 1, -2, -2, -2},
		Value:         []float64{20, 15, 10, 20, 30},
	}
}

func TestForest_PredictIsMeanOfLeaves(t *testing.T) {
	f, err := NewForest(model.Forest{Trees: []model.Tree{
		stump(0, 2000, 10, 60),
		deepTree(),
	}}, 2)
	require.NoError(t, err)

	tests := []struct {
		name     string
		x        []float64
		expected float64
	}{
		{name: "both left", x: []float64{1, 0}, expected: (10 + 10) / 2.0},
		{name: "threshold goes left", x: []float64{5, 1}, expected: (10 + 10) / 2.0},
		{name: "inner right", x: []float64{3, 4}, expected: (10 + 20) / 2.0},
		{name: "deep right", x: []float64{100, 0}, expected: (10 + 30) / 2.0},
		{name: "stump right", x: []float64{2500, 0}, expected: (60 + 30) / 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y, err := f.Predict(tt.x)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, y, 1e-12)
		})
	}
}

func TestForest_RejectsBadInput(t *testing.T) {
	f, err := NewForest(model.Forest{Trees: []model.Tree{stump(0, 1, 0, 1)}}, 2)
	require.NoError(t, err)

	_, err = f.Predict([]float64{1})
	assert.True(t, errors.Is(err, errors.ErrFeatureMismatch))

	_, err = f.Predict([]float64{1, math.NaN()})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestForest_NonFiniteLeaf(t *testing.T) {
	f, err := NewForest(model.Forest{Trees: []model.Tree{stump(0, 1, math.Inf(1), 1)}}, 1)
	require.NoError(t, err)

	_, err = f.Predict([]float64{0})
	assert.True(t, errors.Is(err, errors.ErrNonFinitePrediction))
}

func TestNewForest_Empty(t *testing.T) {
	_, err := NewForest(model.Forest{}, 1)
	assert.Error(t, err)
}

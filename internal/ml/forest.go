package ml

import (
	"math"

	"dbdwatch/internal/domain/model"
	"dbdwatch/pkg/errors"
)

// Forest evaluates a fitted Random-Forest regressor natively: each tree is
// walked from the root and the leaf values are averaged.
type Forest struct {
	trees       []model.Tree
	numFeatures int
}

// NewForest wraps a validated forest definition
func NewForest(f model.Forest, numFeatures int) (*Forest, error) {
	if len(f.Trees) == 0 {
		return nil, errors.NewValidationError("forest", "has no trees", 0)
	}
	return &Forest{trees: f.Trees, numFeatures: numFeatures}, nil
}

// Predict returns the mean of the leaf values reached in every tree
func (f *Forest) Predict(features []float64) (float64, error) {
	if err := checkInput(features, f.numFeatures); err != nil {
		return 0, err
	}

	sum := 0.0
	for i := range f.trees {
		sum += leafValue(&f.trees[i], features)
	}

	y := sum / float64(len(f.trees))
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, errors.ErrNonFinitePrediction
	}
	return y, nil
}

// Close is a no-op; the forest holds no native resources
func (f *Forest) Close() {}

// leafValue descends left when x[feature] <= threshold. Child indices always
// exceed their parent (checked by bundle validation), so the walk terminates.
func leafValue(t *model.Tree, x []float64) float64 {
	node := 0
	for t.ChildrenLeft[node] != model.LeafMarker {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return t.Value[node]
}

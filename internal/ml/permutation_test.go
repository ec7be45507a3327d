package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbdwatch/internal/domain/model"
	"dbdwatch/pkg/errors"
)

// linearPredictor predicts 3*x0 + 0*x1, ignoring the second feature
type linearPredictor struct{}

func (linearPredictor) Predict(x []float64) (float64, error) { return 3 * x[0], nil }
func (linearPredictor) Close()                               {}

func sampleData() ([][]float64, []float64) {
	X := make([][]float64, 0, 20)
	y := make([]float64, 0, 20)
	for i := 0; i < 20; i++ {
		x0 := float64(i)
		x1 := float64((i * 7) % 5)
		X = append(X, []float64{x0, x1})
		y = append(y, 3*x0)
	}
	return X, y
}

func TestPermutationImportance_IgnoredFeatureScoresZero(t *testing.T) {
	X, y := sampleData()

	res, err := PermutationImportance(linearPredictor{}, X, y, 5, 42)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, res.Baseline, 1e-12)
	assert.Greater(t, res.Mean[0], 0.5)
	assert.Equal(t, 0.0, res.Mean[1])
	assert.Equal(t, 0.0, res.Std[1])
}

func TestPermutationImportance_DeterministicForSeed(t *testing.T) {
	X, y := sampleData()
	f, err := NewForest(model.Forest{Trees: []model.Tree{stump(0, 9.5, 10, 45), stump(1, 2, 20, 30)}}, 2)
	require.NoError(t, err)

	a, err := PermutationImportance(f, X, y, 4, 7)
	require.NoError(t, err)
	b, err := PermutationImportance(f, X, y, 4, 7)
	require.NoError(t, err)

	assert.Equal(t, a.Mean, b.Mean)
	assert.Equal(t, a.Std, b.Std)
}

func TestPermutationImportance_DoesNotMutateInput(t *testing.T) {
	X, y := sampleData()
	before := X[3][0]

	_, err := PermutationImportance(linearPredictor{}, X, y, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, before, X[3][0])
}

func TestPermutationImportance_Errors(t *testing.T) {
	X, y := sampleData()

	_, err := PermutationImportance(linearPredictor{}, X[:1], y[:1], 3, 1)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	_, err = PermutationImportance(linearPredictor{}, X, y[:5], 3, 1)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	_, err = PermutationImportance(linearPredictor{}, X, y, 0, 1)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	constant := make([]float64, len(y))
	_, err = PermutationImportance(linearPredictor{}, X, constant, 3, 1)
	assert.True(t, errors.Is(err, errors.ErrImportanceUnavailable))
}

package ml

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"dbdwatch/pkg/errors"
)

// PermutationResult holds the mean and spread of the R² drop per feature
type PermutationResult struct {
	Baseline float64
	Mean     []float64
	Std      []float64
}

// PermutationImportance measures, for each feature column, how much R² drops
// when that column is shuffled. Each column is shuffled `repeats` times with a
// generator seeded by `seed`, so results are reproducible.
func PermutationImportance(p Predictor, X [][]float64, y []float64, repeats int, seed int64) (*PermutationResult, error) {
	if len(X) < 2 || len(X) != len(y) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "need at least 2 aligned rows, got %d rows and %d targets", len(X), len(y))
	}
	if repeats < 1 {
		return nil, errors.NewValidationError("repeats", "must be positive", repeats)
	}

	numFeatures := len(X[0])
	work := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != numFeatures {
			return nil, errors.Wrapf(errors.ErrFeatureMismatch, "row %d has %d values, want %d", i, len(row), numFeatures)
		}
		work[i] = append([]float64(nil), row...)
	}

	baseline, err := score(p, work, y)
	if err != nil {
		return nil, errors.Wrap(err, "baseline score")
	}

	rng := rand.New(rand.NewSource(seed))
	result := &PermutationResult{
		Baseline: baseline,
		Mean:     make([]float64, numFeatures),
		Std:      make([]float64, numFeatures),
	}

	column := make([]float64, len(work))
	drops := make([]float64, repeats)
	for j := 0; j < numFeatures; j++ {
		for i := range work {
			column[i] = work[i][j]
		}

		for r := 0; r < repeats; r++ {
			perm := rng.Perm(len(work))
			for i := range work {
				work[i][j] = column[perm[i]]
			}

			s, err := score(p, work, y)
			if err != nil {
				return nil, errors.Wrapf(err, "permuted score for feature %d", j)
			}
			drops[r] = baseline - s
		}

		for i := range work {
			work[i][j] = column[i]
		}

		if repeats == 1 {
			result.Mean[j] = drops[0]
			continue
		}
		result.Mean[j], result.Std[j] = stat.MeanStdDev(drops, nil)
	}

	return result, nil
}

// score returns the coefficient of determination of p over (X, y)
func score(p Predictor, X [][]float64, y []float64) (float64, error) {
	pred := make([]float64, len(X))
	for i, row := range X {
		v, err := p.Predict(row)
		if err != nil {
			return 0, err
		}
		pred[i] = v
	}

	r2 := stat.RSquaredFrom(pred, y, nil)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		return 0, errors.Wrap(errors.ErrImportanceUnavailable, "R² is undefined for a constant target")
	}
	return r2, nil
}

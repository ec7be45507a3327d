package ml

import (
	"math"

	"dbdwatch/pkg/errors"
)

// Predictor runs a single unbatched regression inference
type Predictor interface {
	Predict(features []float64) (float64, error)
	Close()
}

func checkInput(features []float64, numFeatures int) error {
	if len(features) != numFeatures {
		return errors.Wrapf(errors.ErrFeatureMismatch, "got %d values, model expects %d", len(features), numFeatures)
	}
	for i, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewValidationError("features", "value is not finite", i)
		}
	}
	return nil
}

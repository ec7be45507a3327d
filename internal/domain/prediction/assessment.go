package prediction

import (
	"context"

	"dbdwatch/internal/domain/model"
	"dbdwatch/internal/domain/observation"
)

// Recommendation is one rule-based prevention block
type Recommendation struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Method string   `json:"method"`
	Lines  []string `json:"lines"`
}

// Assessment is everything shown for a region: the prediction, the observation
// it was made from, the model's recorded metrics and the recommendations
type Assessment struct {
	Prediction      Prediction              `json:"prediction"`
	Observation     observation.Observation `json:"observation"`
	Metrics         model.Metrics           `json:"metrics"`
	Recommendations []Recommendation        `json:"recommendations"`
}

// Cache stores assessments keyed by region and model. Get returns
// errors.ErrNotFound on a miss.
type Cache interface {
	Get(ctx context.Context, region, modelName string) (*Assessment, error)
	Set(ctx context.Context, a *Assessment) error
}

package prediction

import (
	"context"
	"time"
)

// Repository persists prediction snapshots
type Repository interface {
	Store(ctx context.Context, predictions []Prediction) error
	GetHistory(ctx context.Context, region string, since time.Time) ([]Prediction, error)
}

// Publisher announces completed assessments to downstream consumers
type Publisher interface {
	PublishAssessed(ctx context.Context, predictions []Prediction) error
}

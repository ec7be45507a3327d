package events

import (
	"context"

	"dbdwatch/internal/domain/prediction"
	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
)

// producer is the Kafka producer surface the publisher depends on
type producer interface {
	Publish(ctx context.Context, topic string, keys []string, events []interface{}) error
}

// RiskAssessedEvent is emitted once per region for each snapshot run
type RiskAssessedEvent struct {
	BaseEvent
	PredictionID string  `json:"prediction_id"`
	Region       string  `json:"region"`
	Year         int     `json:"year"`
	Model        string  `json:"model"`
	IR           float64 `json:"ir"`
	Tier         string  `json:"tier"`
	TierLabel    string  `json:"tier_label"`
}

// Publisher publishes risk events to Kafka keyed by region
type Publisher struct {
	producer producer
	topic    string
	source   string
	log      *logger.Logger
}

func NewPublisher(p producer, topic, source string, log *logger.Logger) *Publisher {
	return &Publisher{
		producer: p,
		topic:    topic,
		source:   source,
		log:      log,
	}
}

// PublishAssessed sends one RiskAssessedEvent per prediction in a single write
func (p *Publisher) PublishAssessed(ctx context.Context, predictions []prediction.Prediction) error {
	if len(predictions) == 0 {
		return nil
	}

	keys := make([]string, 0, len(predictions))
	payload := make([]interface{}, 0, len(predictions))
	for _, pred := range predictions {
		keys = append(keys, pred.Region)
		payload = append(payload, NewRiskAssessedEvent(p.source, pred))
	}

	if err := p.producer.Publish(ctx, p.topic, keys, payload); err != nil {
		return errors.Wrap(err, "publish risk events")
	}

	p.log.Debugw("Published risk events", "topic", p.topic, "count", len(predictions))
	return nil
}

// NewRiskAssessedEvent builds the event for a prediction
func NewRiskAssessedEvent(source string, pred prediction.Prediction) RiskAssessedEvent {
	return RiskAssessedEvent{
		BaseEvent:    NewBaseEvent(TypeRiskAssessed, source),
		PredictionID: pred.ID.String(),
		Region:       pred.Region,
		Year:         pred.Year,
		Model:        pred.Model,
		IR:           pred.IR,
		Tier:         pred.Tier.String(),
		TierLabel:    pred.Tier.Label(),
	}
}

var _ prediction.Publisher = (*Publisher)(nil)

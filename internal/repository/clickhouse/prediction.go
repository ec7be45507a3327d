package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"

	"dbdwatch/internal/domain/prediction"
	"dbdwatch/pkg/errors"
)

// Compile-time check
var _ prediction.Repository = (*PredictionRepository)(nil)

// PredictionRepository implements prediction.Repository for ClickHouse
type PredictionRepository struct {
	conn driver.Conn
}

func NewPredictionRepository(conn driver.Conn) *PredictionRepository {
	return &PredictionRepository{conn: conn}
}

// Store appends a snapshot of predictions in one batch
func (r *PredictionRepository) Store(ctx context.Context, predictions []prediction.Prediction) error {
	if len(predictions) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO dbd_predictions (id, region, year, model, ir, tier, created_at)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare prediction batch")
	}

	for _, p := range predictions {
		if err := batch.Append(
			p.ID,
			p.Region,
			int32(p.Year),
			p.Model,
			p.IR,
			p.Tier.String(),
			p.CreatedAt,
		); err != nil {
			_ = batch.Abort()
			return errors.Wrapf(err, "failed to append prediction for %s", p.Region)
		}
	}

	if err := batch.Send(); err != nil {
		return errors.Wrap(err, "failed to send prediction batch")
	}
	return nil
}

// GetHistory returns a region's predictions since the given time, oldest first
func (r *PredictionRepository) GetHistory(ctx context.Context, region string, since time.Time) ([]prediction.Prediction, error) {
	query := `
		SELECT id, region, year, model, ir, tier, created_at
		FROM dbd_predictions
		WHERE region = ? AND created_at >= ?
		ORDER BY created_at ASC
	`

	rows, err := r.conn.Query(ctx, query, region, since)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query prediction history")
	}
	defer rows.Close()

	var history []prediction.Prediction
	for rows.Next() {
		var (
			p    prediction.Prediction
			id   uuid.UUID
			year int32
			tier string
		)
		if err := rows.Scan(&id, &p.Region, &year, &p.Model, &p.IR, &tier, &p.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan prediction")
		}
		p.ID = id
		p.Year = int(year)
		p.Tier = prediction.RiskTier(tier)
		history = append(history, p)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "prediction rows")
	}
	return history, nil
}

package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbdwatch/internal/domain/prediction"
	"dbdwatch/internal/testsupport"
)

func TestPredictionRepository_Integration(t *testing.T) {
	client := testsupport.NewClickHouseClient(t)
	repo := NewPredictionRepository(client.Conn())
	ctx := context.Background()

	region := "Kota Uji " + uuid.NewString()
	now := time.Now().UTC().Truncate(time.Millisecond)

	err := repo.Store(ctx, []prediction.Prediction{
		{ID: uuid.New(), Region: region, Year: 2022, Model: "rf_80_20", IR: 44.5, Tier: prediction.TierMedium, CreatedAt: now.Add(-time.Hour)},
		{ID: uuid.New(), Region: region, Year: 2023, Model: "rf_80_20", IR: 61.0, Tier: prediction.TierHigh, CreatedAt: now},
	})
	require.NoError(t, err)

	history, err := repo.GetHistory(ctx, region, now.Add(-2*time.Hour))
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, prediction.TierMedium, history[0].Tier)
	assert.Equal(t, 2023, history[1].Year)

	recent, err := repo.GetHistory(ctx, region, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestPredictionRepository_StoreEmpty(t *testing.T) {
	repo := NewPredictionRepository(nil)
	assert.NoError(t, repo.Store(context.Background(), nil))
}

package workers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbdwatch/internal/domain/prediction"
	"dbdwatch/internal/services/risk"
	"dbdwatch/internal/testsupport"
	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
	"dbdwatch/pkg/templates"
)

type fakeAssessor struct {
	assessments []prediction.Assessment
	failures    map[string]error
	err         error
}

func (f *fakeAssessor) RefreshAll(ctx context.Context, modelName string) ([]prediction.Assessment, map[string]error, error) {
	return f.assessments, f.failures, f.err
}

type fakeStore struct {
	stored []prediction.Prediction
	err    error
}

func (f *fakeStore) Store(ctx context.Context, predictions []prediction.Prediction) error {
	f.stored = append(f.stored, predictions...)
	return f.err
}

func (f *fakeStore) GetHistory(ctx context.Context, region string, since time.Time) ([]prediction.Prediction, error) {
	return nil, nil
}

type fakePublisher struct {
	published []prediction.Prediction
}

func (f *fakePublisher) PublishAssessed(ctx context.Context, predictions []prediction.Prediction) error {
	f.published = append(f.published, predictions...)
	return nil
}

func assessment(region string, ir float64, tier prediction.RiskTier) prediction.Assessment {
	return prediction.Assessment{
		Prediction: prediction.Prediction{Region: region, Year: 2023, Model: "rf_80_20", IR: ir, Tier: tier},
	}
}

func TestSnapshotWorker_StoresAndPublishes(t *testing.T) {
	assessor := &fakeAssessor{
		assessments: []prediction.Assessment{
			assessment("Kab. Garut", 12, prediction.TierLow),
			assessment("Kota Bandung", 55, prediction.TierHigh),
		},
		failures: map[string]error{"Kota Depok": errors.ErrNonFinitePrediction},
	}
	store := &fakeStore{}
	pub := &fakePublisher{}

	w := NewSnapshotWorker(assessor, store, pub, time.Hour, true, logger.Nop())
	require.NoError(t, w.Run(context.Background()))

	require.Len(t, store.stored, 2)
	assert.Equal(t, "Kab. Garut", store.stored[0].Region)
	assert.Equal(t, "Kota Bandung", store.stored[1].Region)
	assert.Equal(t, store.stored, pub.published)
	assert.Equal(t, SnapshotWorkerName, w.Name())
}

func TestSnapshotWorker_OptionalSinks(t *testing.T) {
	assessor := &fakeAssessor{
		assessments: []prediction.Assessment{assessment("Kota Depok", 40, prediction.TierMedium)},
	}

	w := NewSnapshotWorker(assessor, nil, nil, time.Hour, true, logger.Nop())
	assert.NoError(t, w.Run(context.Background()))
}

func TestSnapshotWorker_ArtifactFailure(t *testing.T) {
	store := &fakeStore{}
	w := NewSnapshotWorker(&fakeAssessor{err: errors.ErrArtifactLoad}, store, nil, time.Hour, true, logger.Nop())

	err := w.Run(context.Background())
	assert.ErrorIs(t, err, errors.ErrArtifactLoad)
	assert.Empty(t, store.stored)
}

func TestSnapshotWorker_StoreFailureStillPublishes(t *testing.T) {
	assessor := &fakeAssessor{
		assessments: []prediction.Assessment{assessment("Kota Bandung", 55, prediction.TierHigh)},
	}
	store := &fakeStore{err: errors.ErrUnavailable}
	pub := &fakePublisher{}

	w := NewSnapshotWorker(assessor, store, pub, time.Hour, true, logger.Nop())
	err := w.Run(context.Background())

	assert.ErrorIs(t, err, errors.ErrUnavailable)
	assert.Len(t, pub.published, 1)
}

func TestSnapshotWorker_NothingAssessed(t *testing.T) {
	store := &fakeStore{}
	assessor := &fakeAssessor{failures: map[string]error{"Kota Bandung": errors.ErrMissingColumn}}

	w := NewSnapshotWorker(assessor, store, nil, time.Hour, true, logger.Nop())
	assert.NoError(t, w.Run(context.Background()))
	assert.Empty(t, store.stored)
}

type mapCache map[string]*prediction.Assessment

func (m mapCache) Get(_ context.Context, region, modelName string) (*prediction.Assessment, error) {
	if a, ok := m[modelName+"|"+region]; ok {
		return a, nil
	}
	return nil, errors.ErrNotFound
}

func (m mapCache) Set(_ context.Context, a *prediction.Assessment) error {
	m[a.Prediction.Model+"|"+a.Prediction.Region] = a
	return nil
}

func TestSnapshotWorker_BypassesAssessmentCache(t *testing.T) {
	cache := mapCache{}
	svc := risk.NewService(
		testsupport.Catalog(t),
		prediction.Thresholds{Medium: 20, High: 50},
		risk.NewRecommender(risk.DefaultRecommendationThresholds, templates.Get()),
		cache,
		logger.Nop(),
	)

	// warm the cache the way the dashboard does
	_, _, err := svc.AssessAll(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, cache, 3)

	store := &fakeStore{}
	w := NewSnapshotWorker(svc, store, nil, time.Hour, true, logger.Nop())
	require.NoError(t, w.Run(context.Background()))
	require.NoError(t, w.Run(context.Background()))
	require.Len(t, store.stored, 6)

	ids := map[string]bool{}
	for _, p := range store.stored {
		ids[p.ID.String()] = true
	}
	assert.Len(t, ids, 6)

	for _, p := range store.stored[3:] {
		cached := cache["rf_80_20|"+p.Region]
		require.NotNil(t, cached)
		assert.Equal(t, p.ID, cached.Prediction.ID)
	}
}

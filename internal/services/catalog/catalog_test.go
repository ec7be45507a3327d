package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbdwatch/internal/domain/observation"
	"dbdwatch/internal/ml"
	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
)

const bundleJSON = `{
  "version": 1,
  "primary": "rf_80_20",
  "models": [
    {"name": "rf_80_20", "features": ["curah_hujan_mm"],
     "forest": {"trees": [{"children_left": [1,-1,-1], "children_right": [2,-1,-1],
       "feature": [0,-2,-2], "threshold": [2000,-2,-2], "value": [0,10,60]}]}},
    {"name": "rf_70_30", "features": ["rainfall_mm"],
     "forest": {"trees": [{"children_left": [-1], "children_right": [-1],
       "feature": [-2], "threshold": [-2], "value": [25]}]}}
  ]
}`

type countingRepo struct {
	calls int
	ds    *observation.Dataset
	err   error
}

func (r *countingRepo) Load(context.Context) (*observation.Dataset, error) {
	r.calls++
	return r.ds, r.err
}

func sampleDataset(headers ...string) *observation.Dataset {
	obs := observation.NewObservation("Kota Bandung", 2023)
	obs.Set("curah_hujan_mm", 2450)
	return observation.NewDataset([]observation.Observation{obs}, headers)
}

func writeBundle(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestCatalog_LoadsOnce(t *testing.T) {
	repo := &countingRepo{ds: sampleDataset("Kabupaten/Kota", "Tahun", "curah_hujan_mm")}
	c := New(repo, Config{BundlePath: writeBundle(t, bundleJSON), Backend: ml.BackendNative}, logger.Nop())

	snap, err := c.Load(context.Background())
	require.NoError(t, err)
	_, err = c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)

	variant, p, err := snap.Model("")
	require.NoError(t, err)
	assert.Equal(t, "rf_80_20", variant.Name)
	y, err := p.Predict([]float64{2450})
	require.NoError(t, err)
	assert.Equal(t, 60.0, y)

	// alias feature resolves through the canonical column
	variant, _, err = snap.Model("rf_70_30")
	require.NoError(t, err)
	assert.Equal(t, "rf_70_30", variant.Name)

	_, _, err = snap.Model("nope")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	rows, regions, models, err := c.Counts()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2}, []int{rows, regions, models})
}

func TestCatalog_MemoizesFailure(t *testing.T) {
	repo := &countingRepo{err: errors.Wrap(errors.ErrArtifactLoad, "read data.csv")}
	c := New(repo, Config{BundlePath: writeBundle(t, bundleJSON), Backend: ml.BackendNative}, logger.Nop())

	_, err := c.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrArtifactLoad))

	assert.Error(t, c.Health(context.Background()))
	assert.Equal(t, 1, repo.calls)
}

func TestCatalog_MissingFeatureColumn(t *testing.T) {
	repo := &countingRepo{ds: sampleDataset("Kabupaten/Kota", "Tahun")}
	c := New(repo, Config{BundlePath: writeBundle(t, bundleJSON), Backend: ml.BackendNative}, logger.Nop())

	_, err := c.Load(context.Background())
	assert.True(t, errors.Is(err, errors.ErrMissingColumn))
}

func TestCatalog_BadBundle(t *testing.T) {
	repo := &countingRepo{ds: sampleDataset("Kabupaten/Kota", "Tahun", "curah_hujan_mm")}
	c := New(repo, Config{BundlePath: filepath.Join(t.TempDir(), "none.json"), Backend: ml.BackendNative}, logger.Nop())

	_, err := c.Load(context.Background())
	assert.True(t, errors.Is(err, errors.ErrArtifactLoad))
}

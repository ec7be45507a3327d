package report

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"dbdwatch/internal/domain/prediction"
	"dbdwatch/internal/services/catalog"
	"dbdwatch/internal/services/importance"
	"dbdwatch/internal/services/risk"
	"dbdwatch/internal/testsupport"
	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
	"dbdwatch/pkg/templates"
)

func newExporter(t *testing.T) *Exporter {
	t.Helper()

	cat := testsupport.Catalog(t)
	log := logger.Nop()
	riskSvc := risk.NewService(
		cat,
		prediction.Thresholds{Medium: 20, High: 50},
		risk.NewRecommender(risk.DefaultRecommendationThresholds, templates.Get()),
		nil,
		log,
	)
	impSvc := importance.NewService(cat, importance.Config{TopN: 10, PermutationRepeats: 3, Seed: 42}, log)
	return NewExporter(cat, riskSvc, impSvc, log)
}

func TestExporter_Build(t *testing.T) {
	f, err := newExporter(t).Build(context.Background())
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		sheetAssessments,
		"Fitur_rf_80_20", "Fitur_rf_70_30", "Fitur_rf_90_10",
		sheetConsistency,
		sheetMetrics,
	}, f.GetSheetList())

	rows, err := f.GetRows(sheetAssessments)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Kabupaten/Kota", rows[0][0])
	assert.Equal(t, "Kota Bandung", rows[1][0], "highest IR first")
	assert.Equal(t, "rf_80_20", rows[1][2])
	assert.Equal(t, "Tinggi", rows[1][4])
	assert.Equal(t, "Kab. Garut", rows[3][0])

	metrics, err := f.GetRows(sheetMetrics)
	require.NoError(t, err)
	require.Len(t, metrics, 4)
	assert.Equal(t, "rf_80_20", metrics[2][0])
	assert.Equal(t, "Ya", metrics[2][7])
}

func TestExporter_WriteProducesReadableWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newExporter(t).Write(context.Background(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetConsistency)
	require.NoError(t, err)
	assert.Equal(t, "Fitur", rows[0][0])
	assert.Equal(t, "Konsisten", rows[0][len(rows[0])-1])
}

type brokenArtifacts struct{}

func (brokenArtifacts) Load(context.Context) (*catalog.Snapshot, error) {
	return nil, errors.ErrArtifactLoad
}

func TestExporter_ArtifactFailure(t *testing.T) {
	e := newExporter(t)
	e.artifacts = brokenArtifacts{}

	_, err := e.Build(context.Background())
	assert.True(t, errors.Is(err, errors.ErrArtifactLoad))
}

package report

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"dbdwatch/internal/domain/importance"
	"dbdwatch/internal/domain/observation"
	"dbdwatch/internal/domain/prediction"
	"dbdwatch/internal/services/catalog"
	"dbdwatch/internal/services/risk"
	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
)

const (
	sheetAssessments = "Prediksi_Wilayah"
	sheetConsistency = "Konsistensi_Fitur"
	sheetMetrics     = "Metrik_Model"
	importancePrefix = "Fitur_"
)

// ArtifactSource provides the memoized bundle
type ArtifactSource interface {
	Load(ctx context.Context) (*catalog.Snapshot, error)
}

// Assessor predicts every region for a model
type Assessor interface {
	AssessAll(ctx context.Context, modelName string) ([]prediction.Assessment, map[string]error, error)
}

// ImportanceSource provides per-model rankings and their comparison
type ImportanceSource interface {
	Rankings(ctx context.Context) ([]*importance.Ranking, error)
	Comparison(ctx context.Context) (*importance.Comparison, error)
}

// Exporter builds the xlsx workbook offered on the dashboard
type Exporter struct {
	artifacts  ArtifactSource
	assessor   Assessor
	importance ImportanceSource
	log        *logger.Logger
}

func NewExporter(artifacts ArtifactSource, assessor Assessor, imp ImportanceSource, log *logger.Logger) *Exporter {
	return &Exporter{
		artifacts:  artifacts,
		assessor:   assessor,
		importance: imp,
		log:        log.With("component", "report_exporter"),
	}
}

// Write renders the workbook for the primary model into w
func (e *Exporter) Write(ctx context.Context, w io.Writer) error {
	f, err := e.Build(ctx)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "write workbook")
	}
	return nil
}

// Build assembles the workbook: assessments, importance per model,
// cross-model consistency and recorded model metrics
func (e *Exporter) Build(ctx context.Context) (*excelize.File, error) {
	snap, err := e.artifacts.Load(ctx)
	if err != nil {
		return nil, err
	}

	assessments, failures, err := e.assessor.AssessAll(ctx, "")
	if err != nil {
		return nil, errors.Wrap(err, "assess regions")
	}
	for region, ferr := range failures {
		e.log.Warnw("Region left out of export", "region", region, "error", ferr)
	}
	risk.SortByIR(assessments)

	rankings, err := e.importance.Rankings(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "rank importances")
	}
	comparison, err := e.importance.Comparison(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "compare importances")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetAssessments); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "rename sheet")
	}

	steps := []func() error{
		func() error { return writeAssessments(f, assessments) },
		func() error { return writeRankings(f, rankings) },
		func() error { return writeConsistency(f, comparison) },
		func() error { return writeMetrics(f, snap) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			f.Close()
			return nil, err
		}
	}

	return f, nil
}

func writeAssessments(f *excelize.File, assessments []prediction.Assessment) error {
	headers := []interface{}{"Kabupaten/Kota", "Tahun", "Model", "Prediksi IR", "Tingkat Risiko"}
	for _, c := range observation.NumericColumns() {
		headers = append(headers, c.Label())
	}
	headers = append(headers, "Rekomendasi")

	rows := [][]interface{}{headers}
	for _, a := range assessments {
		row := []interface{}{
			a.Prediction.Region,
			a.Prediction.Year,
			a.Prediction.Model,
			round(a.Prediction.IR, 2),
			a.Prediction.Tier.Label(),
		}
		for _, c := range observation.NumericColumns() {
			row = append(row, cell(a.Observation.Get(c)))
		}

		titles := make([]string, 0, len(a.Recommendations))
		for _, r := range a.Recommendations {
			titles = append(titles, r.Title)
		}
		row = append(row, strings.Join(titles, "; "))
		rows = append(rows, row)
	}

	return writeRows(f, sheetAssessments, rows)
}

func writeRankings(f *excelize.File, rankings []*importance.Ranking) error {
	for _, r := range rankings {
		sheet := importancePrefix + r.Model
		if _, err := f.NewSheet(sheet); err != nil {
			return errors.Wrapf(err, "create sheet %s", sheet)
		}

		rows := [][]interface{}{{"Peringkat", "Fitur", "Skor", "Std", "Skor Normalisasi", "Porsi", "Kategori", "Sumber"}}
		for _, s := range r.Scores {
			rows = append(rows, []interface{}{
				s.Rank, s.Feature, cell(s.Raw), cell(s.Std),
				round(s.Normalized, 4), round(s.Share, 4), s.Tier.Label(), string(r.Source),
			})
		}
		if err := writeRows(f, sheet, rows); err != nil {
			return err
		}
	}
	return nil
}

func writeConsistency(f *excelize.File, c *importance.Comparison) error {
	if _, err := f.NewSheet(sheetConsistency); err != nil {
		return errors.Wrap(err, "create consistency sheet")
	}

	header := []interface{}{"Fitur"}
	for _, m := range c.Models {
		header = append(header, m)
	}
	header = append(header, fmt.Sprintf("Jumlah Top-%d", c.TopK), "Rata-rata", "Konsisten")

	rows := [][]interface{}{header}
	for _, e := range c.Entries {
		row := []interface{}{e.Feature}
		for _, m := range c.Models {
			row = append(row, round(e.Scores[m], 4))
		}
		consistent := "Tidak"
		if e.Consistent {
			consistent = "Ya"
		}
		row = append(row, e.TopCount, round(e.Mean, 4), consistent)
		rows = append(rows, row)
	}

	return writeRows(f, sheetConsistency, rows)
}

func writeMetrics(f *excelize.File, snap *catalog.Snapshot) error {
	if _, err := f.NewSheet(sheetMetrics); err != nil {
		return errors.Wrap(err, "create metrics sheet")
	}

	rows := [][]interface{}{{"Model", "Split", "R² Train", "R² Test", "Selisih", "MAE", "RMSE", "Utama"}}
	primary := snap.Bundle.Primary().Name

	models := append([]string(nil), snap.Bundle.Names()...)
	sort.Strings(models)
	for _, name := range models {
		v, _ := snap.Bundle.Model(name)
		isPrimary := ""
		if name == primary {
			isPrimary = "Ya"
		}
		rows = append(rows, []interface{}{
			v.Name, v.Split,
			cell(v.Metrics.R2Train), cell(v.Metrics.R2Test), cell(v.Metrics.TrainTestGap),
			cell(v.Metrics.MAE), cell(v.Metrics.RMSE), isPrimary,
		})
	}

	return writeRows(f, sheetMetrics, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		start, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "cell name")
		}
		if err := f.SetSheetRow(sheet, start, &row); err != nil {
			return errors.Wrapf(err, "write %s row %d", sheet, i+1)
		}
	}

	if len(rows) > 0 {
		last, _ := excelize.ColumnNumberToName(len(rows[0]))
		if err := f.SetColWidth(sheet, "A", last, 18); err != nil {
			return errors.Wrapf(err, "size %s columns", sheet)
		}
	}
	return nil
}

// cell leaves missing values blank instead of writing NaN
func cell(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return v
}

func round(v float64, places int) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

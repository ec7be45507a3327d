package testsupport

import (
	"math"
	"testing"

	"dbdwatch/internal/domain/model"
	"dbdwatch/internal/domain/observation"
	"dbdwatch/internal/ml"
	"dbdwatch/internal/services/catalog"
)

// Feature order shared by every fixture model
var FixtureFeatures = []string{
	"curah_hujan_mm",
	"timbulan_sampah_ton",
	"kepadatan_penduduk_km2",
	"akses_sanitasi_layak_persen",
}

type fixtureRow struct {
	region                                         string
	year                                           int
	rain, waste, density, sanitation, cases, incid float64
}

var fixtureRows = []fixtureRow{
	{"Kota Bandung", 2021, 2300, 500000, 14500, 70, 1450, 58},
	{"Kota Bandung", 2022, 2400, 510000, 14650, 71, 1520, 61},
	{"Kota Bandung", 2023, 2450, 520000, 14800, 72, 1580, 63.2},
	{"Kab. Garut", 2021, 1800, math.NaN(), 850, 83, 290, 10},
	{"Kab. Garut", 2022, 1750, 88000, 860, 84, 330, 11.5},
	{"Kab. Garut", 2023, 1900, 90000, 870, 85, 350, 12},
	{"Kota Depok", 2021, 2050, 280000, 1050, math.NaN(), 650, 30},
	{"Kota Depok", 2022, 2080, 290000, 1080, 78, 700, 33},
	{"Kota Depok", 2023, 2100, 300000, 1100, 79, 740, 35},
}

// Dataset returns three regions over 2021-2023. Latest rows:
// Kota Bandung is high risk, Kota Depok medium and Kab. Garut low under the primary model.
func Dataset() *observation.Dataset {
	headers := []string{"Kabupaten/Kota", "Tahun"}
	for _, c := range observation.NumericColumns() {
		headers = append(headers, c.String())
	}

	rows := make([]observation.Observation, 0, len(fixtureRows))
	for _, r := range fixtureRows {
		obs := observation.NewObservation(r.region, r.year)
		set := func(c observation.Column, v float64) {
			if !math.IsNaN(v) {
				obs.Set(c.String(), v)
			}
		}
		set(observation.ColumnRainfall, r.rain)
		set(observation.ColumnWaste, r.waste)
		set(observation.ColumnDensity, r.density)
		set(observation.ColumnSanitation, r.sanitation)
		set(observation.ColumnCases, r.cases)
		set(observation.ColumnIncidence, r.incid)
		rows = append(rows, obs)
	}

	return observation.NewDataset(rows, headers)
}

func stump(feature int, threshold, left, right float64) model.Tree {
	return model.Tree{
		ChildrenLeft:  []int{1, model.LeafMarker, model.LeafMarker},
		ChildrenRight: []int{2, model.LeafMarker, model.LeafMarker},
		Feature:       []int{feature, -2, -2},
		Threshold:     []float64{threshold, -2, -2},
		Value:         []float64{0, left, right},
	}
}

// Bundle returns three variants. rf_90_10 carries no importances.
func Bundle() *model.Bundle {
	densityThenRain := model.Tree{
		ChildrenLeft:  []int{1, 2, model.LeafMarker, model.LeafMarker, model.LeafMarker},
		ChildrenRight: []int{4, 3, model.LeafMarker, model.LeafMarker, model.LeafMarker},
		Feature:       []int{2, 0, -2, -2, -2},
		Threshold:     []float64{1200, 2000, -2, -2, -2},
		Value:         []float64{0, 0, 10, 30, 60},
	}

	return &model.Bundle{
		Version:     1,
		Target:      "incidence_rate",
		PrimaryName: "rf_80_20",
		Models: []model.Variant{
			{
				Name: "rf_80_20", Split: "80:20", TestSize: 0.2,
				Features:           FixtureFeatures,
				Metrics:            model.Metrics{R2Train: 0.91, R2Test: 0.72, TrainTestGap: 0.19, MAE: 4.1, RMSE: 6.3},
				FeatureImportances: []float64{0.55, 0.05, 0.4, 0},
				Forest:             model.Forest{Trees: []model.Tree{densityThenRain, stump(0, 2000, 14, 50)}},
			},
			{
				Name: "rf_70_30", Split: "70:30", TestSize: 0.3,
				Features:           FixtureFeatures,
				Metrics:            model.Metrics{R2Train: 0.88, R2Test: 0.75, TrainTestGap: 0.13, MAE: 4.0, RMSE: 6.0},
				FeatureImportances: []float64{0.1, 0, 0.9, 0},
				Forest:             model.Forest{Trees: []model.Tree{stump(2, 1200, 15, 58)}},
			},
			{
				Name: "rf_90_10", Split: "90:10", TestSize: 0.1,
				Features: FixtureFeatures,
				Metrics:  model.Metrics{R2Train: 0.93, R2Test: 0.69, TrainTestGap: 0.24, MAE: 4.4, RMSE: 6.8},
				Forest:   model.Forest{Trees: []model.Tree{stump(0, 2000, 11, 45)}},
			},
		},
	}
}

// Snapshot builds native predictors for Bundle over Dataset
func Snapshot(t *testing.T) *catalog.Snapshot {
	t.Helper()

	bundle := Bundle()
	predictors := make(map[string]ml.Predictor, len(bundle.Models))
	for _, v := range bundle.Models {
		f, err := ml.NewForest(v.Forest, len(v.Features))
		if err != nil {
			t.Fatalf("build forest %s: %v", v.Name, err)
		}
		predictors[v.Name] = f
	}

	return &catalog.Snapshot{Dataset: Dataset(), Bundle: bundle, Predictors: predictors}
}

// Catalog returns a preloaded catalog over the fixtures
func Catalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	return catalog.NewFromSnapshot(Snapshot(t))
}

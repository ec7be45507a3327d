package postgres

import (
	"context"
	"database/sql"
	"math"

	"dbdwatch/internal/domain/observation"
	"dbdwatch/pkg/errors"
)

// Compile-time check
var _ observation.Repository = (*ObservationRepository)(nil)

// observationColumns are the table columns in dataset header order
var observationColumns = []observation.Column{
	observation.ColumnRegion,
	observation.ColumnYear,
	observation.ColumnRainfall,
	observation.ColumnWaste,
	observation.ColumnDensity,
	observation.ColumnSanitation,
	observation.ColumnCases,
	observation.ColumnIncidence,
}

// observationRow maps dengue_observations; NULL numbers become NaN
type observationRow struct {
	Region     string          `db:"region"`
	Year       int             `db:"year"`
	Rainfall   sql.NullFloat64 `db:"curah_hujan_mm"`
	Waste      sql.NullFloat64 `db:"timbulan_sampah_ton"`
	Density    sql.NullFloat64 `db:"kepadatan_penduduk_km2"`
	Sanitation sql.NullFloat64 `db:"akses_sanitasi_layak_persen"`
	Cases      sql.NullFloat64 `db:"jumlah_kasus"`
	Incidence  sql.NullFloat64 `db:"incidence_rate"`
}

func (r observationRow) toDomain() observation.Observation {
	obs := observation.NewObservation(r.Region, r.Year)
	set := func(c observation.Column, v sql.NullFloat64) {
		if v.Valid {
			obs.Set(c.String(), v.Float64)
		}
	}
	set(observation.ColumnRainfall, r.Rainfall)
	set(observation.ColumnWaste, r.Waste)
	set(observation.ColumnDensity, r.Density)
	set(observation.ColumnSanitation, r.Sanitation)
	set(observation.ColumnCases, r.Cases)
	set(observation.ColumnIncidence, r.Incidence)
	return obs
}

func rowFromDomain(o observation.Observation) observationRow {
	return observationRow{
		Region:     o.Region,
		Year:       o.Year,
		Rainfall:   nullable(o.Rainfall),
		Waste:      nullable(o.Waste),
		Density:    nullable(o.Density),
		Sanitation: nullable(o.Sanitation),
		Cases:      nullable(o.Cases),
		Incidence:  nullable(o.Incidence),
	}
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// ObservationRepository reads the dataset from PostgreSQL
type ObservationRepository struct {
	db DBTX
}

func NewObservationRepository(db DBTX) *ObservationRepository {
	return &ObservationRepository{db: db}
}

// Load returns every row ordered by insertion, so ties on year keep source order
func (r *ObservationRepository) Load(ctx context.Context) (*observation.Dataset, error) {
	var rows []observationRow

	query := `
		SELECT region, year, curah_hujan_mm, timbulan_sampah_ton, kepadatan_penduduk_km2,
		       akses_sanitasi_layak_persen, jumlah_kasus, incidence_rate
		FROM dengue_observations
		ORDER BY id`

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrapf(errors.ErrArtifactLoad, "query dengue_observations: %v", err)
	}

	observations := make([]observation.Observation, 0, len(rows))
	for _, row := range rows {
		observations = append(observations, row.toDomain())
	}

	headers := make([]string, 0, len(observationColumns))
	for _, c := range observationColumns {
		headers = append(headers, c.String())
	}

	return observation.NewDataset(observations, headers), nil
}

// Upsert writes observations keyed by (region, year); existing rows are overwritten
func (r *ObservationRepository) Upsert(ctx context.Context, observations []observation.Observation) error {
	query := `
		INSERT INTO dengue_observations (
			region, year, curah_hujan_mm, timbulan_sampah_ton, kepadatan_penduduk_km2,
			akses_sanitasi_layak_persen, jumlah_kasus, incidence_rate
		) VALUES (
			:region, :year, :curah_hujan_mm, :timbulan_sampah_ton, :kepadatan_penduduk_km2,
			:akses_sanitasi_layak_persen, :jumlah_kasus, :incidence_rate
		)
		ON CONFLICT (region, year) DO UPDATE SET
			curah_hujan_mm = EXCLUDED.curah_hujan_mm,
			timbulan_sampah_ton = EXCLUDED.timbulan_sampah_ton,
			kepadatan_penduduk_km2 = EXCLUDED.kepadatan_penduduk_km2,
			akses_sanitasi_layak_persen = EXCLUDED.akses_sanitasi_layak_persen,
			jumlah_kasus = EXCLUDED.jumlah_kasus,
			incidence_rate = EXCLUDED.incidence_rate`

	for _, o := range observations {
		if _, err := r.db.NamedExecContext(ctx, query, rowFromDomain(o)); err != nil {
			return errors.Wrapf(err, "upsert %s %d", o.Region, o.Year)
		}
	}
	return nil
}

package observation

import (
	"encoding/json"
	"math"
	"strings"
)

// Column identifies a canonical dataset column
type Column string

const (
	ColumnRegion     Column = "Kabupaten/Kota"
	ColumnYear       Column = "Tahun"
	ColumnRainfall   Column = "curah_hujan_mm"
	ColumnWaste      Column = "timbulan_sampah_ton"
	ColumnDensity    Column = "kepadatan_penduduk_km2"
	ColumnSanitation Column = "akses_sanitasi_layak_persen"
	ColumnCases      Column = "jumlah_kasus"
	ColumnIncidence  Column = "incidence_rate"
)

// String returns string representation
func (c Column) String() string {
	return string(c)
}

// Aliases returns the accepted header spellings for a canonical column, canonical first
func (c Column) Aliases() []string {
	switch c {
	case ColumnRegion:
		return []string{string(c), "kabupaten_kota", "region", "wilayah"}
	case ColumnYear:
		return []string{string(c), "tahun", "year"}
	case ColumnRainfall:
		return []string{string(c), "rainfall_mm"}
	case ColumnWaste:
		return []string{string(c), "waste_ton"}
	case ColumnDensity:
		return []string{string(c), "population_density"}
	case ColumnSanitation:
		return []string{string(c), "sanitation_pct"}
	case ColumnCases:
		return []string{string(c), "kasus_dbd", "cases"}
	case ColumnIncidence:
		return []string{string(c), "IR", "ir_dbd", "ir"}
	}
	return []string{string(c)}
}

// Label returns the Indonesian display name
func (c Column) Label() string {
	switch c {
	case ColumnRegion:
		return "Kabupaten/Kota"
	case ColumnYear:
		return "Tahun"
	case ColumnRainfall:
		return "Curah Hujan"
	case ColumnWaste:
		return "Timbulan Sampah"
	case ColumnDensity:
		return "Kepadatan Penduduk"
	case ColumnSanitation:
		return "Akses Sanitasi Layak"
	case ColumnCases:
		return "Jumlah Kasus"
	case ColumnIncidence:
		return "Incidence Rate"
	}
	return string(c)
}

// Unit returns the display unit and decimals used on metric cards
func (c Column) Unit() (unit string, decimals int) {
	switch c {
	case ColumnRainfall:
		return "mm", 0
	case ColumnWaste:
		return "Ton", 0
	case ColumnDensity:
		return "Jiwa/km²", 0
	case ColumnSanitation:
		return "%", 1
	case ColumnCases:
		return "kasus", 0
	case ColumnIncidence:
		return "per 100.000", 2
	}
	return "", 0
}

// NumericColumns lists the canonical numeric columns in display order
func NumericColumns() []Column {
	return []Column{
		ColumnRainfall,
		ColumnWaste,
		ColumnDensity,
		ColumnSanitation,
		ColumnCases,
		ColumnIncidence,
	}
}

// ResolveColumn maps a header onto its canonical column, if any
func ResolveColumn(header string) (Column, bool) {
	h := normalizeHeader(header)
	for _, c := range append([]Column{ColumnRegion, ColumnYear}, NumericColumns()...) {
		for _, alias := range c.Aliases() {
			if normalizeHeader(alias) == h {
				return c, true
			}
		}
	}
	return "", false
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// Observation is one dataset row: environmental and epidemiological figures
// for a region in a given year. Missing numeric cells are NaN.
type Observation struct {
	Region string `json:"region"`
	Year   int    `json:"year"`

	Rainfall   float64 `json:"curah_hujan_mm"`
	Waste      float64 `json:"timbulan_sampah_ton"`
	Density    float64 `json:"kepadatan_penduduk_km2"`
	Sanitation float64 `json:"akses_sanitasi_layak_persen"`
	Cases      float64 `json:"jumlah_kasus"`
	Incidence  float64 `json:"incidence_rate"`

	// Values holds every numeric column by its original header, including
	// columns without a canonical meaning (extra model features).
	Values map[string]float64 `json:"-"`
}

// NewObservation returns an observation whose numeric fields are all missing
func NewObservation(region string, year int) Observation {
	nan := math.NaN()
	return Observation{
		Region:     region,
		Year:       year,
		Rainfall:   nan,
		Waste:      nan,
		Density:    nan,
		Sanitation: nan,
		Cases:      nan,
		Incidence:  nan,
		Values:     make(map[string]float64),
	}
}

// Set stores a numeric value under its header and, when the header is a known
// alias, into the canonical field as well
func (o *Observation) Set(header string, v float64) {
	if o.Values == nil {
		o.Values = make(map[string]float64)
	}
	o.Values[strings.TrimSpace(header)] = v

	col, ok := ResolveColumn(header)
	if !ok {
		return
	}
	switch col {
	case ColumnRainfall:
		o.Rainfall = v
	case ColumnWaste:
		o.Waste = v
	case ColumnDensity:
		o.Density = v
	case ColumnSanitation:
		o.Sanitation = v
	case ColumnCases:
		o.Cases = v
	case ColumnIncidence:
		o.Incidence = v
	}
}

// Get returns a canonical column value (NaN when missing)
func (o *Observation) Get(c Column) float64 {
	switch c {
	case ColumnRainfall:
		return o.Rainfall
	case ColumnWaste:
		return o.Waste
	case ColumnDensity:
		return o.Density
	case ColumnSanitation:
		return o.Sanitation
	case ColumnCases:
		return o.Cases
	case ColumnIncidence:
		return o.Incidence
	case ColumnYear:
		return float64(o.Year)
	}
	return math.NaN()
}

// Value resolves a model feature name: exact header first, then canonical alias.
// Reports false when the column is absent or its value is missing.
func (o *Observation) Value(name string) (float64, bool) {
	if v, ok := o.Values[strings.TrimSpace(name)]; ok && !math.IsNaN(v) {
		return v, true
	}

	col, ok := ResolveColumn(name)
	if !ok {
		return math.NaN(), false
	}

	v := o.Get(col)
	return v, !math.IsNaN(v)
}

// observationJSON mirrors Observation with nullable numbers since JSON has no NaN
type observationJSON struct {
	Region     string   `json:"region"`
	Year       int      `json:"year"`
	Rainfall   *float64 `json:"curah_hujan_mm"`
	Waste      *float64 `json:"timbulan_sampah_ton"`
	Density    *float64 `json:"kepadatan_penduduk_km2"`
	Sanitation *float64 `json:"akses_sanitasi_layak_persen"`
	Cases      *float64 `json:"jumlah_kasus"`
	Incidence  *float64 `json:"incidence_rate"`
}

// MarshalJSON encodes missing values as null
func (o Observation) MarshalJSON() ([]byte, error) {
	return json.Marshal(observationJSON{
		Region:     o.Region,
		Year:       o.Year,
		Rainfall:   nullable(o.Rainfall),
		Waste:      nullable(o.Waste),
		Density:    nullable(o.Density),
		Sanitation: nullable(o.Sanitation),
		Cases:      nullable(o.Cases),
		Incidence:  nullable(o.Incidence),
	})
}

// UnmarshalJSON decodes null values back to NaN
func (o *Observation) UnmarshalJSON(data []byte) error {
	var raw observationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*o = NewObservation(raw.Region, raw.Year)
	set := func(c Column, p *float64) {
		if p != nil {
			o.Set(c.String(), *p)
		}
	}
	set(ColumnRainfall, raw.Rainfall)
	set(ColumnWaste, raw.Waste)
	set(ColumnDensity, raw.Density)
	set(ColumnSanitation, raw.Sanitation)
	set(ColumnCases, raw.Cases)
	set(ColumnIncidence, raw.Incidence)
	return nil
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

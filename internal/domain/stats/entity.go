package stats

import (
	"encoding/json"
	"math"

	"dbdwatch/internal/domain/observation"
)

// Summary is the descriptive statistics of one numeric column.
// Undefined values (no data, std of a single value) are NaN.
type Summary struct {
	Column observation.Column
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Max    float64
	Median float64
}

// MarshalJSON encodes undefined values as null
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Column string   `json:"column"`
		Label  string   `json:"label"`
		Count  int      `json:"count"`
		Mean   *float64 `json:"mean"`
		Std    *float64 `json:"std"`
		Min    *float64 `json:"min"`
		Max    *float64 `json:"max"`
		Median *float64 `json:"median"`
	}{
		Column: s.Column.String(),
		Label:  s.Column.Label(),
		Count:  s.Count,
		Mean:   nullable(s.Mean),
		Std:    nullable(s.Std),
		Min:    nullable(s.Min),
		Max:    nullable(s.Max),
		Median: nullable(s.Median),
	})
}

// YearValue is one point of a region's yearly series
type YearValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Series is a column's yearly values for one region, missing years omitted
type Series struct {
	Region string             `json:"region"`
	Column observation.Column `json:"column"`
	Points []YearValue        `json:"points"`
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

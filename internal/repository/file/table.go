package file

import (
	"math"
	"strconv"
	"strings"

	"dbdwatch/internal/domain/observation"
	"dbdwatch/pkg/errors"
)

// LoadReport summarizes what was read from a tabular source
type LoadReport struct {
	Rows        int
	SkippedRows int
	Headers     []string
}

// buildDataset turns a header row and string records into a dataset.
// Rows with an empty region or unparsable year are skipped; other
// unparsable cells become NaN.
func buildDataset(headers []string, records [][]string) (*observation.Dataset, LoadReport, error) {
	report := LoadReport{Headers: make([]string, len(headers))}
	for i, h := range headers {
		report.Headers[i] = strings.TrimSpace(h)
	}

	regionIdx, yearIdx := -1, -1
	for i, h := range report.Headers {
		col, ok := observation.ResolveColumn(h)
		if !ok {
			continue
		}
		switch col {
		case observation.ColumnRegion:
			if regionIdx < 0 {
				regionIdx = i
			}
		case observation.ColumnYear:
			if yearIdx < 0 {
				yearIdx = i
			}
		}
	}

	var missing []string
	if regionIdx < 0 {
		missing = append(missing, observation.ColumnRegion.String())
	}
	if yearIdx < 0 {
		missing = append(missing, observation.ColumnYear.String())
	}
	if len(missing) > 0 {
		return nil, report, errors.Wrapf(errors.ErrMissingColumn, "%s", strings.Join(missing, ", "))
	}

	rows := make([]observation.Observation, 0, len(records))
	for _, rec := range records {
		region := strings.TrimSpace(cell(rec, regionIdx))
		year, ok := parseYear(cell(rec, yearIdx))
		if region == "" || !ok {
			report.SkippedRows++
			continue
		}

		obs := observation.NewObservation(region, year)
		for i, h := range report.Headers {
			if i == regionIdx || i == yearIdx || h == "" {
				continue
			}
			obs.Set(h, parseNumber(cell(rec, i)))
		}
		rows = append(rows, obs)
	}

	report.Rows = len(rows)
	return observation.NewDataset(rows, report.Headers), report, nil
}

// cell returns rec[i], or "" for short (ragged) records
func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// parseYear accepts "2021" as well as spreadsheet floats like "2021.0"
func parseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if y, err := strconv.Atoi(s); err == nil {
		return y, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// parseNumber returns NaN for empty, placeholder or unparsable cells
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "-", "na", "n/a", "nan", "null":
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

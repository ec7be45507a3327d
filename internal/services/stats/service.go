package stats

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"dbdwatch/internal/domain/observation"
	domainstats "dbdwatch/internal/domain/stats"
	"dbdwatch/internal/services/catalog"
	"dbdwatch/pkg/errors"
)

// ArtifactSource provides the memoized dataset
type ArtifactSource interface {
	Load(ctx context.Context) (*catalog.Snapshot, error)
}

// Service computes descriptive statistics over the dataset
type Service struct {
	artifacts ArtifactSource
}

func NewService(artifacts ArtifactSource) *Service {
	return &Service{artifacts: artifacts}
}

// Overall summarizes every numeric column over all rows
func (s *Service) Overall(ctx context.Context) ([]domainstats.Summary, error) {
	snap, err := s.artifacts.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Summarize(snap.Dataset.Rows()), nil
}

// Region summarizes every numeric column over one region's rows
func (s *Service) Region(ctx context.Context, region string) ([]domainstats.Summary, error) {
	snap, err := s.artifacts.Load(ctx)
	if err != nil {
		return nil, err
	}

	canonical, ok := snap.Dataset.FindRegion(region)
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "region %q", region)
	}
	return Summarize(snap.Dataset.History(canonical)), nil
}

// History returns a region's yearly series for a numeric column
func (s *Service) History(ctx context.Context, region string, column observation.Column) (*domainstats.Series, error) {
	snap, err := s.artifacts.Load(ctx)
	if err != nil {
		return nil, err
	}

	canonical, ok := snap.Dataset.FindRegion(region)
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "region %q", region)
	}
	if !isNumeric(column) {
		return nil, errors.NewValidationError("column", "not a numeric column", column)
	}

	series := &domainstats.Series{Region: canonical, Column: column, Points: []domainstats.YearValue{}}
	for _, obs := range snap.Dataset.History(canonical) {
		if v := obs.Get(column); !math.IsNaN(v) {
			series.Points = append(series.Points, domainstats.YearValue{Year: obs.Year, Value: v})
		}
	}
	return series, nil
}

// Summarize computes count, mean, sample std, min, max and median per
// numeric column, ignoring missing values
func Summarize(rows []observation.Observation) []domainstats.Summary {
	columns := observation.NumericColumns()
	out := make([]domainstats.Summary, 0, len(columns))

	for _, c := range columns {
		values := make([]float64, 0, len(rows))
		for _, r := range rows {
			if v := r.Get(c); !math.IsNaN(v) && !math.IsInf(v, 0) {
				values = append(values, v)
			}
		}
		out = append(out, summarize(c, values))
	}
	return out
}

func summarize(c observation.Column, values []float64) domainstats.Summary {
	nan := math.NaN()
	s := domainstats.Summary{Column: c, Count: len(values), Mean: nan, Std: nan, Min: nan, Max: nan, Median: nan}
	if len(values) == 0 {
		return s
	}

	sort.Float64s(values)
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	s.Median = median(values)

	if len(values) == 1 {
		s.Mean = values[0]
		return s
	}
	s.Mean, s.Std = stat.MeanStdDev(values, nil)
	return s
}

// median of sorted values; the mean of the middle pair for even lengths
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func isNumeric(c observation.Column) bool {
	for _, n := range observation.NumericColumns() {
		if n == c {
			return true
		}
	}
	return false
}

package risk

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"dbdwatch/internal/domain/prediction"
	"dbdwatch/internal/metrics"
	"dbdwatch/internal/ml"
	"dbdwatch/internal/services/catalog"
	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
)

// ArtifactSource provides the memoized dataset, bundle and predictors
type ArtifactSource interface {
	Load(ctx context.Context) (*catalog.Snapshot, error)
}

// Service turns a region's latest observation into an assessment
type Service struct {
	artifacts   ArtifactSource
	thresholds  prediction.Thresholds
	recommender *Recommender
	cache       prediction.Cache
	log         *logger.Logger

	now func() time.Time
}

// NewService wires the assessment pipeline; cache may be nil
func NewService(
	artifacts ArtifactSource,
	thresholds prediction.Thresholds,
	recommender *Recommender,
	cache prediction.Cache,
	log *logger.Logger,
) *Service {
	return &Service{
		artifacts:   artifacts,
		thresholds:  thresholds,
		recommender: recommender,
		cache:       cache,
		log:         log.With("component", "risk_service"),
		now:         time.Now,
	}
}

// Thresholds returns the configured IR cut points
func (s *Service) Thresholds() prediction.Thresholds {
	return s.thresholds
}

// Assess predicts the region's incidence rate from its latest observation
// with the named model (primary when empty). Region matching is case-insensitive.
func (s *Service) Assess(ctx context.Context, region, modelName string) (*prediction.Assessment, error) {
	return s.assess(ctx, region, modelName, true)
}

// assess runs one prediction. With useCache unset the cached assessment is
// ignored and the fresh one (new ID and timestamp) replaces it.
func (s *Service) assess(ctx context.Context, region, modelName string, useCache bool) (*prediction.Assessment, error) {
	snap, err := s.artifacts.Load(ctx)
	if err != nil {
		return nil, err
	}

	canonical, ok := snap.Dataset.FindRegion(region)
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "region %q", region)
	}

	variant, predictor, err := snap.Model(modelName)
	if err != nil {
		return nil, err
	}

	if useCache {
		if cached := s.fromCache(ctx, canonical, variant.Name); cached != nil {
			return cached, nil
		}
	}

	obs, _ := snap.Dataset.Latest(canonical)

	x, err := ml.FeatureVector(variant.Features, obs.Value)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %d", canonical, obs.Year)
	}

	start := time.Now()
	ir, err := predictor.Predict(x)
	tier := s.thresholds.Classify(ir)
	metrics.RecordPrediction(variant.Name, tier.String(), time.Since(start), err)
	if err != nil {
		return nil, errors.Wrapf(err, "predict %s with %s", canonical, variant.Name)
	}

	recs, err := s.recommender.Recommend(obs, tier, ir)
	if err != nil {
		return nil, err
	}

	features := make(map[string]float64, len(x))
	for i, name := range variant.Features {
		features[name] = x[i]
	}

	a := &prediction.Assessment{
		Prediction: prediction.Prediction{
			ID:        uuid.New(),
			Region:    canonical,
			Year:      obs.Year,
			Model:     variant.Name,
			IR:        ir,
			Tier:      tier,
			Features:  features,
			CreatedAt: s.now().UTC(),
		},
		Observation:     obs,
		Metrics:         variant.Metrics,
		Recommendations: recs,
	}

	s.toCache(ctx, a)
	return a, nil
}

// AssessAll assesses every region in sorted order. Regions that fail are
// returned in the error map and do not stop the others.
func (s *Service) AssessAll(ctx context.Context, modelName string) ([]prediction.Assessment, map[string]error, error) {
	return s.assessAll(ctx, modelName, true)
}

// RefreshAll is AssessAll without cache reads. Every region gets a new
// prediction and the cache is overwritten with it.
func (s *Service) RefreshAll(ctx context.Context, modelName string) ([]prediction.Assessment, map[string]error, error) {
	return s.assessAll(ctx, modelName, false)
}

func (s *Service) assessAll(ctx context.Context, modelName string, useCache bool) ([]prediction.Assessment, map[string]error, error) {
	snap, err := s.artifacts.Load(ctx)
	if err != nil {
		return nil, nil, err
	}

	regions := snap.Dataset.Regions()
	assessments := make([]prediction.Assessment, 0, len(regions))
	failures := make(map[string]error)

	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			return assessments, failures, err
		}

		a, err := s.assess(ctx, region, modelName, useCache)
		if err != nil {
			failures[region] = err
			continue
		}
		assessments = append(assessments, *a)
	}

	return assessments, failures, nil
}

// Compare assesses a region with every model in bundle order
func (s *Service) Compare(ctx context.Context, region string) ([]prediction.Assessment, error) {
	snap, err := s.artifacts.Load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]prediction.Assessment, 0, len(snap.Bundle.Models))
	for _, name := range snap.Bundle.Names() {
		a, err := s.Assess(ctx, region, name)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}

func (s *Service) fromCache(ctx context.Context, region, modelName string) *prediction.Assessment {
	if s.cache == nil {
		return nil
	}

	a, err := s.cache.Get(ctx, region, modelName)
	switch {
	case err == nil:
		metrics.RecordCacheLookup("hit")
		return a
	case errors.Is(err, errors.ErrNotFound):
		metrics.RecordCacheLookup("miss")
	default:
		metrics.RecordCacheLookup("error")
		s.log.Warnw("Assessment cache read failed", "region", region, "error", err)
	}
	return nil
}

func (s *Service) toCache(ctx context.Context, a *prediction.Assessment) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, a); err != nil {
		s.log.Warnw("Assessment cache write failed", "region", a.Prediction.Region, "error", err)
	}
}

// TierCounts tallies assessments per tier, in high, medium, low order
func TierCounts(assessments []prediction.Assessment) []TierCount {
	counts := map[prediction.RiskTier]int{}
	for _, a := range assessments {
		counts[a.Prediction.Tier]++
	}

	out := []TierCount{
		{Tier: prediction.TierHigh, Count: counts[prediction.TierHigh]},
		{Tier: prediction.TierMedium, Count: counts[prediction.TierMedium]},
		{Tier: prediction.TierLow, Count: counts[prediction.TierLow]},
	}
	return out
}

// TierCount is one row of a tier summary
type TierCount struct {
	Tier  prediction.RiskTier
	Count int
}

// SortByIR orders assessments by predicted IR, highest first, then region
func SortByIR(assessments []prediction.Assessment) {
	sort.SliceStable(assessments, func(i, j int) bool {
		a, b := assessments[i].Prediction, assessments[j].Prediction
		if a.IR != b.IR {
			return a.IR > b.IR
		}
		return a.Region < b.Region
	})
}

package importance

import (
	"context"
	"math"
	"sync"

	"dbdwatch/internal/domain/importance"
	"dbdwatch/internal/domain/model"
	"dbdwatch/internal/domain/observation"
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

type Config struct {
	TopN               int
	PermutationRepeats int
	Seed               int64
	// PreferPermutation recomputes scores even when the bundle carries them
	PreferPermutation bool
}

// Service computes and memoizes per-model feature importance rankings
type Service struct {
	artifacts ArtifactSource
	cfg       Config
	log       *logger.Logger

	mu       sync.Mutex
	rankings map[string]*importance.Ranking
}

func NewService(artifacts ArtifactSource, cfg Config, log *logger.Logger) *Service {
	if cfg.TopN <= 0 {
		cfg.TopN = 10
	}
	if cfg.PermutationRepeats <= 0 {
		cfg.PermutationRepeats = 10
	}

	return &Service{
		artifacts: artifacts,
		cfg:       cfg,
		log:       log.With("component", "importance_service"),
		rankings:  make(map[string]*importance.Ranking),
	}
}

// TopN returns the configured cut-off for "top" features
func (s *Service) TopN() int {
	return s.cfg.TopN
}

// Ranking returns the model's ranking (primary model when name is empty).
// It never fails because of the score source: failures yield uniform weights.
func (s *Service) Ranking(ctx context.Context, modelName string) (*importance.Ranking, error) {
	snap, err := s.artifacts.Load(ctx)
	if err != nil {
		return nil, err
	}

	variant, predictor, err := snap.Model(modelName)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.rankings[variant.Name]; ok {
		return r, nil
	}

	r := s.compute(snap, variant, predictor)
	if r.Fallback {
		metrics.RecordImportanceFallback(variant.Name)
		s.log.Warnw("Using uniform importance weights", "model", variant.Name, "reason", r.FallbackReason)
	}

	s.rankings[variant.Name] = r
	return r, nil
}

// Rankings returns every model's ranking in bundle order
func (s *Service) Rankings(ctx context.Context) ([]*importance.Ranking, error) {
	snap, err := s.artifacts.Load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*importance.Ranking, 0, len(snap.Bundle.Models))
	for _, name := range snap.Bundle.Names() {
		r, err := s.Ranking(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Comparison reports which features sit in the top-N of every model
func (s *Service) Comparison(ctx context.Context) (*importance.Comparison, error) {
	rankings, err := s.Rankings(ctx)
	if err != nil {
		return nil, err
	}

	values := make([]importance.Ranking, 0, len(rankings))
	for _, r := range rankings {
		values = append(values, *r)
	}

	c := importance.Compare(values, s.cfg.TopN)
	return &c, nil
}

func (s *Service) compute(snap *catalog.Snapshot, v *model.Variant, p ml.Predictor) *importance.Ranking {
	if v.HasImportances() && !s.cfg.PreferPermutation {
		r := importance.Rank(v.Name, v.Features, v.FeatureImportances, nil, importance.SourceModel)
		return &r
	}

	res, err := s.permutation(snap, v, p)
	if err == nil {
		r := importance.Rank(v.Name, v.Features, res.Mean, res.Std, importance.SourcePermutation)
		return &r
	}

	if v.HasImportances() {
		s.log.Warnw("Permutation importance failed, using bundle scores", "model", v.Name, "error", err)
		r := importance.Rank(v.Name, v.Features, v.FeatureImportances, nil, importance.SourceModel)
		return &r
	}

	r := importance.Rank(v.Name, v.Features, importance.Uniform(len(v.Features)), nil, importance.SourceUniform)
	r.Fallback = true
	r.FallbackReason = err.Error()
	return &r
}

// permutation evaluates the model on every complete dataset row
func (s *Service) permutation(snap *catalog.Snapshot, v *model.Variant, p ml.Predictor) (*ml.PermutationResult, error) {
	target := snap.Bundle.Target
	if target == "" {
		target = observation.ColumnIncidence.String()
	}

	var (
		X [][]float64
		y []float64
	)
	for _, obs := range snap.Dataset.Rows() {
		yv, ok := obs.Value(target)
		if !ok || math.IsInf(yv, 0) {
			continue
		}
		x, err := ml.FeatureVector(v.Features, obs.Value)
		if err != nil {
			continue
		}
		X = append(X, x)
		y = append(y, yv)
	}

	if len(X) < 2 {
		return nil, errors.Wrapf(errors.ErrImportanceUnavailable, "only %d complete rows for %s", len(X), v.Name)
	}

	return ml.PermutationImportance(p, X, y, s.cfg.PermutationRepeats, s.cfg.Seed)
}

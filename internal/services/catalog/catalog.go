package catalog

import (
	"context"
	"sync"

	"dbdwatch/internal/domain/model"
	"dbdwatch/internal/domain/observation"
	"dbdwatch/internal/ml"
	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
)

// Config selects the model bundle and inference backend
type Config struct {
	BundlePath string
	Backend    string
	ONNX       ml.ONNXConfig
}

// Snapshot is the immutable set of artifacts shared by every request
type Snapshot struct {
	Dataset    *observation.Dataset
	Bundle     *model.Bundle
	Predictors map[string]ml.Predictor
}

// Model resolves a variant and its predictor; an empty name selects the primary model
func (s *Snapshot) Model(name string) (*model.Variant, ml.Predictor, error) {
	var variant *model.Variant
	if name == "" {
		variant = s.Bundle.Primary()
	} else if v, ok := s.Bundle.Model(name); ok {
		variant = v
	}
	if variant == nil {
		return nil, nil, errors.Wrapf(errors.ErrNotFound, "model %q", name)
	}

	p, ok := s.Predictors[variant.Name]
	if !ok {
		return nil, nil, errors.Wrapf(errors.ErrUnavailable, "no predictor for model %s", variant.Name)
	}
	return variant, p, nil
}

// Catalog loads the dataset and model bundle once and memoizes the result,
// including a load failure, for the process lifetime
type Catalog struct {
	repo observation.Repository
	cfg  Config
	log  *logger.Logger

	once sync.Once
	snap *Snapshot
	err  error
}

func New(repo observation.Repository, cfg Config, log *logger.Logger) *Catalog {
	return &Catalog{
		repo: repo,
		cfg:  cfg,
		log:  log.With("component", "catalog"),
	}
}

// NewFromSnapshot returns a catalog that is already loaded
func NewFromSnapshot(snap *Snapshot) *Catalog {
	c := &Catalog{snap: snap, log: logger.Nop()}
	c.once.Do(func() {})
	return c
}

// Load returns the memoized artifacts, loading them on first use
func (c *Catalog) Load(ctx context.Context) (*Snapshot, error) {
	c.once.Do(func() {
		c.snap, c.err = c.load(ctx)
		if c.err != nil {
			c.log.Errorw("Failed to load artifacts", "error", c.err)
		}
	})
	return c.snap, c.err
}

func (c *Catalog) load(ctx context.Context) (*Snapshot, error) {
	dataset, err := c.repo.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load dataset")
	}

	bundle, err := ml.LoadBundle(c.cfg.BundlePath)
	if err != nil {
		return nil, err
	}

	// every model's features must be resolvable from the dataset headers
	for _, v := range bundle.Models {
		if missing := missingFeatures(dataset, v.Features); len(missing) > 0 {
			return nil, errors.Wrapf(errors.ErrMissingColumn, "model %s needs %v", v.Name, missing)
		}
	}

	predictors, err := ml.BuildPredictors(bundle, c.cfg.Backend, c.cfg.ONNX, c.log)
	if err != nil {
		return nil, err
	}

	c.log.Infow("Artifacts loaded",
		"rows", dataset.Len(),
		"regions", len(dataset.Regions()),
		"models", bundle.Names(),
		"primary", bundle.Primary().Name,
		"backend", c.cfg.Backend,
	)

	return &Snapshot{Dataset: dataset, Bundle: bundle, Predictors: predictors}, nil
}

// missingFeatures lists features matching neither a source header nor a canonical alias
func missingFeatures(ds *observation.Dataset, features []string) []string {
	headers := make(map[string]bool, len(ds.Headers()))
	for _, h := range ds.Headers() {
		headers[h] = true
	}

	var missing []string
	for _, f := range features {
		if headers[f] {
			continue
		}
		if col, ok := observation.ResolveColumn(f); ok && ds.HasColumn(col) {
			continue
		}
		missing = append(missing, f)
	}
	return missing
}

// Counts implements metrics.ArtifactStats
func (c *Catalog) Counts() (rows, regions, models int, err error) {
	snap, err := c.Load(context.Background())
	if err != nil {
		return 0, 0, 0, err
	}
	return snap.Dataset.Len(), len(snap.Dataset.Regions()), len(snap.Bundle.Models), nil
}

// Regions lists the dataset's regions in sorted order
func (c *Catalog) Regions(ctx context.Context) ([]string, error) {
	snap, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Dataset.Regions(), nil
}

// Health reports the memoized load error, if any
func (c *Catalog) Health(ctx context.Context) error {
	_, err := c.Load(ctx)
	return err
}

// Close releases predictor resources
func (c *Catalog) Close() {
	if c.snap == nil {
		return
	}
	for _, p := range c.snap.Predictors {
		p.Close()
	}
}

package ml

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"

	"dbdwatch/internal/domain/model"
	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
)

const (
	BackendNative = "native"
	BackendONNX   = "onnx"
)

// LoadBundle reads and validates a model bundle from a JSON file
func LoadBundle(path string) (*model.Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrArtifactLoad, "read bundle %s: %v", path, err)
	}

	var bundle model.Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, errors.Wrapf(errors.ErrArtifactLoad, "decode bundle %s: %v", path, err)
	}
	bundle.Dir = filepath.Dir(path)

	if err := bundle.Validate(); err != nil {
		return nil, errors.Wrapf(errors.ErrArtifactLoad, "bundle %s: %v", path, err)
	}

	return &bundle, nil
}

// loadONNX is swapped in tests that run without the onnxruntime library
var loadONNX = func(path string, numFeatures int, cfg ONNXConfig) (Predictor, error) {
	return LoadONNXModel(path, numFeatures, cfg)
}

// BuildPredictors creates one predictor per bundle variant. With the onnx
// backend, variants without an export or whose session fails to load fall
// back to the embedded forest. Variants that ship only an ONNX export use
// it under either backend.
func BuildPredictors(bundle *model.Bundle, backend string, cfg ONNXConfig, log *logger.Logger) (map[string]Predictor, error) {
	predictors := make(map[string]Predictor, len(bundle.Models))

	closeAll := func() {
		for _, p := range predictors {
			p.Close()
		}
	}

	for i := range bundle.Models {
		v := &bundle.Models[i]
		hasForest := len(v.Forest.Trees) > 0

		if v.ONNXPath != "" && (backend == BackendONNX || !hasForest) {
			if backend != BackendONNX {
				log.Warnw("Model has no embedded forest, using its ONNX export", "model", v.Name, "backend", backend)
			}

			path := v.ONNXPath
			if !filepath.IsAbs(path) {
				path = filepath.Join(bundle.Dir, path)
			}

			onnxModel, err := loadONNX(path, len(v.Features), cfg)
			if err == nil {
				predictors[v.Name] = onnxModel
				log.Infow("Loaded ONNX model", "model", v.Name, "path", path)
				continue
			}
			if !hasForest {
				closeAll()
				return nil, errors.Wrapf(errors.ErrArtifactLoad, "model %s: %v", v.Name, err)
			}
			log.Warnw("ONNX model unavailable, using embedded forest", "model", v.Name, "error", err)
		}

		forest, err := NewForest(v.Forest, len(v.Features))
		if err != nil {
			closeAll()
			return nil, errors.Wrapf(errors.ErrArtifactLoad, "model %s: %v", v.Name, err)
		}
		predictors[v.Name] = forest
	}

	return predictors, nil
}

// FeatureVector extracts the model's feature values from a lookup in
// feature order. Missing or non-finite values are reported by name.
func FeatureVector(features []string, lookup func(name string) (float64, bool)) ([]float64, error) {
	x := make([]float64, len(features))
	var missing []string

	for i, name := range features {
		v, ok := lookup(name)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			missing = append(missing, name)
			continue
		}
		x[i] = v
	}

	if len(missing) > 0 {
		return nil, errors.Wrapf(errors.ErrMissingColumn, "no value for %v", missing)
	}
	return x, nil
}

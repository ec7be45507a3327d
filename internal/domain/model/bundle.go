package model

import (
	"encoding/json"
	"fmt"

	"dbdwatch/pkg/errors"
)

// Metrics are the performance figures recorded when a variant was trained
type Metrics struct {
	R2Train      float64 `json:"r2_train"`
	R2Test       float64 `json:"r2_test"`
	TrainTestGap float64 `json:"train_test_gap"`
	MAE          float64 `json:"mae"`
	RMSE         float64 `json:"rmse"`
}

// UnmarshalJSON fills TrainTestGap from r2_train - r2_test when the field
// is absent. An explicit value, zero included, is kept.
func (m *Metrics) UnmarshalJSON(data []byte) error {
	type plain Metrics
	var raw struct {
		plain
		TrainTestGap *float64 `json:"train_test_gap"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = Metrics(raw.plain)
	if raw.TrainTestGap != nil {
		m.TrainTestGap = *raw.TrainTestGap
	} else {
		m.TrainTestGap = m.R2Train - m.R2Test
	}
	return nil
}

// Tree is a fitted regression tree in flat array form: node i splits on
// Feature[i] at Threshold[i]; leaves have ChildrenLeft[i] == LeafMarker.
type Tree struct {
	ChildrenLeft  []int     `json:"children_left"`
	ChildrenRight []int     `json:"children_right"`
	Feature       []int     `json:"feature"`
	Threshold     []float64 `json:"threshold"`
	Value         []float64 `json:"value"`
}

// LeafMarker marks a missing child index
const LeafMarker = -1

// Forest is an ensemble of regression trees averaged at prediction time
type Forest struct {
	Trees []Tree `json:"trees"`
}

// Variant is one trained model in the bundle (e.g. the 80:20 split)
type Variant struct {
	Name               string    `json:"name"`
	Split              string    `json:"split"`
	TestSize           float64   `json:"test_size"`
	Features           []string  `json:"features"`
	Metrics            Metrics   `json:"metrics"`
	FeatureImportances []float64 `json:"feature_importances,omitempty"`
	ONNXPath           string    `json:"onnx_path,omitempty"`
	Forest             Forest    `json:"forest"`
}

// HasImportances reports whether the variant carries model-intrinsic importances
func (v *Variant) HasImportances() bool {
	return len(v.FeatureImportances) > 0
}

// Bundle is the serialized artifact: trained variants plus metadata
type Bundle struct {
	Version     int       `json:"version"`
	Target      string    `json:"target"`
	PrimaryName string    `json:"primary"`
	Models      []Variant `json:"models"`

	// Dir is the directory the bundle was read from; ONNX paths resolve against it
	Dir string `json:"-"`
}

// Primary returns the variant used for dashboard predictions
func (b *Bundle) Primary() *Variant {
	if v, ok := b.Model(b.PrimaryName); ok {
		return v
	}
	if len(b.Models) > 0 {
		return &b.Models[0]
	}
	return nil
}

// Model looks up a variant by name
func (b *Bundle) Model(name string) (*Variant, bool) {
	for i := range b.Models {
		if b.Models[i].Name == name {
			return &b.Models[i], true
		}
	}
	return nil, false
}

// Names returns variant names in bundle order
func (b *Bundle) Names() []string {
	names := make([]string, 0, len(b.Models))
	for _, m := range b.Models {
		names = append(names, m.Name)
	}
	return names
}

// Validate checks structural consistency of every variant and collects all problems
func (b *Bundle) Validate() error {
	var errs errors.MultiError

	if len(b.Models) == 0 {
		errs.Add(errors.NewValidationError("models", "bundle contains no models", 0))
		return errs.ToError()
	}

	seen := make(map[string]bool)
	for i := range b.Models {
		v := &b.Models[i]
		field := fmt.Sprintf("models[%d]", i)

		if v.Name == "" {
			errs.Add(errors.NewValidationError(field+".name", "must not be empty", v.Name))
		} else if seen[v.Name] {
			errs.Add(errors.NewValidationError(field+".name", "duplicate model name", v.Name))
		}
		seen[v.Name] = true

		if len(v.Features) == 0 {
			errs.Add(errors.NewValidationError(field+".features", "must not be empty", len(v.Features)))
		}

		if v.HasImportances() && len(v.FeatureImportances) != len(v.Features) {
			errs.Add(errors.NewValidationError(field+".feature_importances",
				"length must match features", len(v.FeatureImportances)))
		}

		if len(v.Forest.Trees) == 0 && v.ONNXPath == "" {
			errs.Add(errors.NewValidationError(field+".forest", "needs trees or an onnx_path", 0))
		}

		for t := range v.Forest.Trees {
			if err := v.Forest.Trees[t].validate(len(v.Features)); err != nil {
				errs.Add(errors.Wrapf(err, "%s.forest.trees[%d]", field, t))
			}
		}
	}

	if b.PrimaryName != "" && !seen[b.PrimaryName] {
		errs.Add(errors.NewValidationError("primary", "unknown model", b.PrimaryName))
	}

	return errs.ToError()
}

func (t *Tree) validate(numFeatures int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return errors.NewValidationError("children_left", "tree has no nodes", 0)
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return errors.NewValidationError("nodes", "array lengths differ", n)
	}

	for i := 0; i < n; i++ {
		left, right := t.ChildrenLeft[i], t.ChildrenRight[i]
		if left == LeafMarker {
			continue
		}
		if left <= i || left >= n || right <= i || right >= n {
			return errors.NewValidationError(fmt.Sprintf("node[%d]", i), "child index out of range", [2]int{left, right})
		}
		if t.Feature[i] < 0 || t.Feature[i] >= numFeatures {
			return errors.NewValidationError(fmt.Sprintf("node[%d].feature", i), "feature index out of range", t.Feature[i])
		}
	}

	return nil
}

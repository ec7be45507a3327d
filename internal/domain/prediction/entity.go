package prediction

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// RiskTier buckets a predicted incidence rate
type RiskTier string

const (
	TierLow    RiskTier = "low"
	TierMedium RiskTier = "medium"
	TierHigh   RiskTier = "high"
)

// Valid checks if tier is valid
func (t RiskTier) Valid() bool {
	switch t {
	case TierLow, TierMedium, TierHigh:
		return true
	}
	return false
}

// String returns string representation
func (t RiskTier) String() string {
	return string(t)
}

// Label returns the Indonesian display label
func (t RiskTier) Label() string {
	switch t {
	case TierHigh:
		return "Tinggi"
	case TierMedium:
		return "Sedang"
	default:
		return "Rendah"
	}
}

// Thresholds are the IR cut points between tiers
type Thresholds struct {
	Medium float64
	High   float64
}

// Classify returns exactly one tier for any IR value:
// (-inf, Medium) low, [Medium, High) medium, [High, +inf) high. NaN is low.
func (th Thresholds) Classify(ir float64) RiskTier {
	switch {
	case math.IsNaN(ir):
		return TierLow
	case ir >= th.High:
		return TierHigh
	case ir >= th.Medium:
		return TierMedium
	default:
		return TierLow
	}
}

// Prediction is one inference result for a region's latest observation
type Prediction struct {
	ID        uuid.UUID          `json:"id"`
	Region    string             `json:"region"`
	Year      int                `json:"year"`
	Model     string             `json:"model"`
	IR        float64            `json:"ir"`
	Tier      RiskTier           `json:"tier"`
	Features  map[string]float64 `json:"features"`
	CreatedAt time.Time          `json:"created_at"`
}

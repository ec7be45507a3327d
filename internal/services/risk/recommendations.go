package risk

import (
	"math"

	"dbdwatch/internal/domain/observation"
	"dbdwatch/internal/domain/prediction"
	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/templates"
)

// RecommendationThresholds are the cut points of the environmental rules
type RecommendationThresholds struct {
	RainfallMM        float64
	DensityPerKm2     float64
	SanitationPercent float64
	WasteTon          float64
}

// DefaultRecommendationThresholds match the values the dashboard was calibrated on
var DefaultRecommendationThresholds = RecommendationThresholds{
	RainfallMM:        2000,
	DensityPerKm2:     1200,
	SanitationPercent: 80,
	WasteTon:          100000,
}

const (
	titleRainfall   = "Mitigasi Dampak Curah Hujan"
	titleDensity    = "Pencegahan Area Padat"
	titleSanitation = "Perbaikan Akses Sanitasi"
	titleWaste      = "Pengelolaan Sampah"
	titleTier       = "Respons Tingkat Risiko"
)

// block is one candidate recommendation; its template receives Value and Threshold
type block struct {
	id        string
	title     string
	method    string
	value     float64
	threshold float64
}

// Recommender renders rule-based prevention blocks from embedded templates
type Recommender struct {
	thresholds RecommendationThresholds
	registry   *templates.Registry
}

func NewRecommender(thresholds RecommendationThresholds, registry *templates.Registry) *Recommender {
	return &Recommender{thresholds: thresholds, registry: registry}
}

// Recommend evaluates every rule in display order. A rule whose input is
// missing is skipped; the tier block is always present.
func (r *Recommender) Recommend(obs observation.Observation, tier prediction.RiskTier, ir float64) ([]prediction.Recommendation, error) {
	th := r.thresholds
	var blocks []block

	if rain := obs.Rainfall; !math.IsNaN(rain) {
		if rain > th.RainfallMM {
			blocks = append(blocks, block{"rainfall_high", titleRainfall, "PSN 3M Plus Intensif", rain, th.RainfallMM})
		} else {
			blocks = append(blocks, block{"rainfall_normal", titleRainfall, "Pembersihan Wadah Air Indoor", rain, th.RainfallMM})
		}
	}

	if density := obs.Density; !math.IsNaN(density) {
		if density > th.DensityPerKm2 {
			blocks = append(blocks, block{"density_high", titleDensity, "Gerakan G1W1J", density, th.DensityPerKm2})
		} else {
			blocks = append(blocks, block{"density_normal", titleDensity, "Pemantauan Jentik Berkala", density, th.DensityPerKm2})
		}
	}

	if san := obs.Sanitation; !math.IsNaN(san) && san < th.SanitationPercent {
		blocks = append(blocks, block{"sanitation_low", titleSanitation, "Sanitasi Lingkungan", san, th.SanitationPercent})
	}

	if waste := obs.Waste; !math.IsNaN(waste) && waste > th.WasteTon {
		blocks = append(blocks, block{"waste_high", titleWaste, "Kurangi Wadah Genangan", waste, th.WasteTon})
	}

	switch tier {
	case prediction.TierHigh:
		blocks = append(blocks, block{"tier_high", titleTier, "Fogging Fokus & Surveilans Aktif", ir, 0})
	case prediction.TierMedium:
		blocks = append(blocks, block{"tier_medium", titleTier, "PSN Serentak", ir, 0})
	default:
		blocks = append(blocks, block{"tier_low", titleTier, "Pencegahan Rutin", ir, 0})
	}

	recs := make([]prediction.Recommendation, 0, len(blocks))
	for _, b := range blocks {
		tmpl, err := r.registry.GetTemplate("recommendations/" + b.id)
		if err != nil {
			return nil, err
		}

		lines, err := tmpl.RenderLines(map[string]float64{"Value": b.value, "Threshold": b.threshold})
		if err != nil {
			return nil, errors.Wrapf(err, "recommendation %s", b.id)
		}

		recs = append(recs, prediction.Recommendation{
			ID:     b.id,
			Title:  b.title,
			Method: b.method,
			Lines:  lines,
		})
	}

	return recs, nil
}

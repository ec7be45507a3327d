package importance

import (
	"math"
	"sort"
)

// Uniform returns equal raw weights 1/n
func Uniform(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}
	return w
}

// Categorize maps a normalized score onto a tier
func Categorize(normalized float64) Tier {
	switch {
	case normalized >= HighCutoff:
		return TierHigh
	case normalized >= MediumCutoff:
		return TierMedium
	default:
		return TierLow
	}
}

// Normalize clips negatives to zero and scales by the maximum so every score
// lands in [0,1]. Degenerate input (no positive finite maximum, or any NaN)
// is replaced by uniform weights; the second return value reports that.
func Normalize(raw []float64) (normalized, share []float64, degenerate bool) {
	n := len(raw)
	clipped := make([]float64, n)

	maxVal, sum := 0.0, 0.0
	for i, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			degenerate = true
			break
		}
		clipped[i] = math.Max(v, 0)
		maxVal = math.Max(maxVal, clipped[i])
		sum += clipped[i]
	}

	if degenerate || maxVal <= 0 {
		clipped = Uniform(n)
		maxVal, sum = 1/float64(n), 1
		degenerate = true
	}

	normalized = make([]float64, n)
	share = make([]float64, n)
	for i, v := range clipped {
		normalized[i] = math.Min(v/maxVal, 1)
		share[i] = v / sum
	}

	return normalized, share, degenerate
}

// Rank builds a sorted Ranking from raw scores in feature order. std may be nil.
func Rank(modelName string, features []string, raw, std []float64, source Source) Ranking {
	normalized, share, degenerate := Normalize(raw)

	r := Ranking{Model: modelName, Source: source}
	if degenerate && source != SourceUniform {
		r.Source = SourceUniform
		r.Fallback = true
		r.FallbackReason = "scores are all zero or not finite"
	}

	r.Scores = make([]Score, len(features))
	for i, f := range features {
		s := Score{
			Feature:    f,
			Raw:        raw[i],
			Normalized: normalized[i],
			Share:      share[i],
			Tier:       Categorize(normalized[i]),
		}
		if i < len(std) {
			s.Std = std[i]
		}
		r.Scores[i] = s
	}

	sort.SliceStable(r.Scores, func(a, b int) bool {
		if r.Scores[a].Normalized != r.Scores[b].Normalized {
			return r.Scores[a].Normalized > r.Scores[b].Normalized
		}
		return r.Scores[a].Feature < r.Scores[b].Feature
	})
	for i := range r.Scores {
		r.Scores[i].Rank = i + 1
	}

	return r
}

// Compare reports, for the union of features, each model's normalized score,
// how many models rank it in their topK, and the mean score. A feature is
// consistent only when every model ranks it in its topK.
func Compare(rankings []Ranking, topK int) Comparison {
	c := Comparison{TopK: topK}
	if len(rankings) == 0 {
		return c
	}

	entries := make(map[string]*ComparisonEntry)
	var order []string
	for _, r := range rankings {
		c.Models = append(c.Models, r.Model)
		for _, s := range r.Scores {
			e, ok := entries[s.Feature]
			if !ok {
				e = &ComparisonEntry{Feature: s.Feature, Scores: make(map[string]float64)}
				entries[s.Feature] = e
				order = append(order, s.Feature)
			}
			e.Scores[r.Model] = s.Normalized
		}
	}

	for _, f := range order {
		e := entries[f]
		total := 0.0
		for _, r := range rankings {
			total += e.Scores[r.Model]
			if r.InTop(f, topK) {
				e.TopCount++
			}
		}
		e.Mean = total / float64(len(rankings))
		e.Consistent = e.TopCount == len(rankings)
		c.Entries = append(c.Entries, *e)
	}

	sort.SliceStable(c.Entries, func(a, b int) bool {
		if c.Entries[a].Mean != c.Entries[b].Mean {
			return c.Entries[a].Mean > c.Entries[b].Mean
		}
		return c.Entries[a].Feature < c.Entries[b].Feature
	})

	c.Consistent = []string{}
	for _, e := range c.Entries {
		if e.Consistent {
			c.Consistent = append(c.Consistent, e.Feature)
		}
	}

	return c
}

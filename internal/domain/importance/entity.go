package importance

// Tier categorizes a normalized importance score
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// Tier cut points on the normalized [0,1] scale
const (
	HighCutoff   = 0.66
	MediumCutoff = 0.33
)

// Label returns the Indonesian display label
func (t Tier) Label() string {
	switch t {
	case TierHigh:
		return "Sangat Berpengaruh"
	case TierMedium:
		return "Berpengaruh"
	default:
		return "Kurang Berpengaruh"
	}
}

// Source tells where raw scores came from
type Source string

const (
	SourceModel       Source = "model"
	SourcePermutation Source = "permutation"
	SourceUniform     Source = "uniform_fallback"
)

// Score is one feature's importance within a model
type Score struct {
	Feature    string  `json:"feature"`
	Raw        float64 `json:"raw"`
	Std        float64 `json:"std"`
	Normalized float64 `json:"normalized"`
	Share      float64 `json:"share"`
	Tier       Tier    `json:"tier"`
	Rank       int     `json:"rank"`
}

// Ranking is a model's feature importances sorted by normalized score
type Ranking struct {
	Model          string  `json:"model"`
	Source         Source  `json:"source"`
	Fallback       bool    `json:"fallback"`
	FallbackReason string  `json:"fallback_reason,omitempty"`
	Scores         []Score `json:"scores"`
}

// Top returns the n highest-ranked scores; n <= 0 or n beyond length returns all
func (r *Ranking) Top(n int) []Score {
	if n <= 0 || n >= len(r.Scores) {
		return r.Scores
	}
	return r.Scores[:n]
}

// InTop reports whether feature ranks within the first n
func (r *Ranking) InTop(feature string, n int) bool {
	for _, s := range r.Top(n) {
		if s.Feature == feature {
			return true
		}
	}
	return false
}

// ComparisonEntry is one feature's standing across all compared models
type ComparisonEntry struct {
	Feature    string             `json:"feature"`
	Scores     map[string]float64 `json:"scores"`
	TopCount   int                `json:"top_count"`
	Mean       float64            `json:"mean"`
	Consistent bool               `json:"consistent"`
}

// Comparison summarizes cross-model consistency
type Comparison struct {
	Models     []string          `json:"models"`
	TopK       int               `json:"top_k"`
	Entries    []ComparisonEntry `json:"entries"`
	Consistent []string          `json:"consistent"`
}

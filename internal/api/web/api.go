package web

import (
	"net/http"
	"strconv"
	"time"

	"dbdwatch/internal/domain/importance"
	"dbdwatch/internal/domain/model"
	"dbdwatch/pkg/errors"
)

type modelInfo struct {
	Name           string        `json:"name"`
	Split          string        `json:"split"`
	TestSize       float64       `json:"test_size"`
	Features       []string      `json:"features"`
	Metrics        model.Metrics `json:"metrics"`
	Primary        bool          `json:"primary"`
	HasImportances bool          `json:"has_importances"`
}

func (h *Handler) handleRegions(w http.ResponseWriter, r *http.Request) {
	snap, err := h.deps.Artifacts.Load(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"regions": snap.Dataset.Regions()})
}

func (h *Handler) handleAssessment(w http.ResponseWriter, r *http.Request) {
	a, err := h.deps.Assessor.Assess(r.Context(), r.PathValue("region"), r.URL.Query().Get("model"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) handleRegionComparison(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.Assessor.Compare(r.Context(), r.PathValue("region"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assessments": out})
}

func (h *Handler) handleRegionStats(w http.ResponseWriter, r *http.Request) {
	region := r.PathValue("region")
	summaries, err := h.deps.Stats.Region(r.Context(), region)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"region": region, "summaries": summaries})
}

func (h *Handler) handleRegionHistory(w http.ResponseWriter, r *http.Request) {
	if h.deps.History == nil {
		h.writeError(w, r, errors.Wrap(errors.ErrUnavailable, "prediction history store is not configured"))
		return
	}

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			h.writeError(w, r, errors.NewValidationError("since", "expected YYYY-MM-DD", raw))
			return
		}
		since = t
	}

	snap, err := h.deps.Artifacts.Load(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	region, ok := snap.Dataset.FindRegion(r.PathValue("region"))
	if !ok {
		h.writeError(w, r, errors.Wrapf(errors.ErrNotFound, "region %q", r.PathValue("region")))
		return
	}

	predictions, err := h.deps.History.GetHistory(r.Context(), region, since)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"region": region, "predictions": predictions})
}

func (h *Handler) handleModels(w http.ResponseWriter, r *http.Request) {
	snap, err := h.deps.Artifacts.Load(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	primary := snap.Bundle.Primary().Name
	out := make([]modelInfo, 0, len(snap.Bundle.Models))
	for _, v := range snap.Bundle.Models {
		out = append(out, modelInfo{
			Name:           v.Name,
			Split:          v.Split,
			TestSize:       v.TestSize,
			Features:       v.Features,
			Metrics:        v.Metrics,
			Primary:        v.Name == primary,
			HasImportances: v.HasImportances(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": out})
}

func (h *Handler) handleImportance(w http.ResponseWriter, r *http.Request) {
	top, err := h.topParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ranking, err := h.deps.Importance.Ranking(r.Context(), r.URL.Query().Get("model"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := *ranking
	out.Scores = ranking.Top(top)
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleImportanceComparison(w http.ResponseWriter, r *http.Request) {
	c, err := h.deps.Importance.Comparison(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.deps.Stats.Overall(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summaries": summaries})
}

// topParam reads ?top=, defaulting to the configured N; 0 means all features
func (h *Handler) topParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("top")
	if raw == "" {
		return h.deps.Importance.TopN(), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.NewValidationError("top", "must be a non-negative integer", raw)
	}
	return n, nil
}

// topScores is a ranking truncated for display
func topScores(r *importance.Ranking, n int) []importance.Score {
	if r == nil {
		return nil
	}
	return r.Top(n)
}

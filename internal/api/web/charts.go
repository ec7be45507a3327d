package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"dbdwatch/internal/domain/observation"
	"dbdwatch/pkg/charts"
	"dbdwatch/pkg/errors"
)

func (h *Handler) handleImportanceChart(w http.ResponseWriter, r *http.Request) {
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

	scores := ranking.Top(top)
	bars := make([]charts.Bar, 0, len(scores))
	for _, s := range scores {
		bars = append(bars, charts.Bar{Label: s.Feature, Value: s.Normalized})
	}

	title := fmt.Sprintf("Kepentingan Fitur (%s)", ranking.Model)
	h.writePNG(w, r, func(buf *bytes.Buffer) error {
		return charts.BarChart(buf, title, "Skor ternormalisasi", bars)
	})
}

func (h *Handler) handleHistoryChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	column := observation.ColumnIncidence
	if raw := q.Get("column"); raw != "" {
		c, ok := observation.ResolveColumn(raw)
		if !ok {
			h.writeError(w, r, errors.NewValidationError("column", "unknown column", raw))
			return
		}
		column = c
	}

	series, err := h.deps.Stats.History(r.Context(), q.Get("region"), column)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if len(series.Points) == 0 {
		h.writeError(w, r, errors.Wrapf(errors.ErrNotFound, "no %s values for %s", column, series.Region))
		return
	}

	points := make([]charts.Point, 0, len(series.Points))
	for _, p := range series.Points {
		points = append(points, charts.Point{X: float64(p.Year), Y: p.Value})
	}

	unit, _ := column.Unit()
	yLabel := column.Label()
	if unit != "" {
		yLabel += " (" + unit + ")"
	}
	title := column.Label() + " " + series.Region

	h.writePNG(w, r, func(buf *bytes.Buffer) error {
		return charts.LineChart(buf, title, observation.ColumnYear.Label(), yLabel, points)
	})
}

func (h *Handler) handleComparisonChart(w http.ResponseWriter, r *http.Request) {
	c, err := h.deps.Importance.Comparison(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	entries := c.Entries
	if n := h.deps.Importance.TopN(); n > 0 && len(entries) > n {
		entries = entries[:n]
	}

	categories := make([]string, 0, len(entries))
	for _, e := range entries {
		categories = append(categories, e.Feature)
	}

	series := make([]charts.Series, 0, len(c.Models))
	for _, m := range c.Models {
		values := make([]float64, 0, len(entries))
		for _, e := range entries {
			values = append(values, e.Scores[m])
		}
		series = append(series, charts.Series{Name: m, Values: values})
	}

	h.writePNG(w, r, func(buf *bytes.Buffer) error {
		return charts.GroupedBarChart(buf, "Perbandingan Kepentingan Fitur antar Model", "Skor ternormalisasi", categories, series)
	})
}

// writePNG renders into a buffer first so failures still get a proper status
func (h *Handler) writePNG(w http.ResponseWriter, r *http.Request, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "max-age=300")
	_, _ = buf.WriteTo(w)
}

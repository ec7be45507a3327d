package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"

	"dbdwatch/internal/domain/importance"
	"dbdwatch/internal/domain/observation"
	"dbdwatch/internal/domain/prediction"
	domainstats "dbdwatch/internal/domain/stats"
	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/format"
)

//go:embed assets/*.html
var assets embed.FS

type card struct {
	Label string
	Value string
}

type page struct {
	Title    string
	Variant  Variant
	Tabs     []tab
	Tab      string
	Regions  []string
	Region   string
	Year     int
	Error    string
	Warnings []string

	// prediksi
	Assessment *prediction.Assessment
	Cards      []card
	Thresholds prediction.Thresholds

	// statistik
	RegionStats  []domainstats.Summary
	OverallStats []domainstats.Summary

	// faktor
	Ranking *importance.Ranking
	Top     []importance.Score

	// perbandingan
	ModelAssessments []prediction.Assessment
	Comparison       *importance.Comparison
}

// HistoryChartURL links the region's IR history chart
func (p page) HistoryChartURL() string {
	return "/charts/history.png?" + url.Values{
		"region": {p.Region},
		"column": {observation.ColumnIncidence.String()},
	}.Encode()
}

// ImportanceChartURL links the importance chart of the page's ranking
func (p page) ImportanceChartURL() string {
	if p.Ranking == nil {
		return ""
	}
	return "/charts/importance.png?" + url.Values{"model": {p.Ranking.Model}}.Encode()
}

type pageRenderer struct {
	tmpl *template.Template
}

func newPageRenderer() (*pageRenderer, error) {
	tmpl, err := template.New("dashboard.html").Funcs(template.FuncMap{
		"num":       format.Number,
		"percent":   format.Percent,
		"unit":      format.WithUnit,
		"tierClass": func(t prediction.RiskTier) string { return "tier-" + t.String() },
		"scorePct":  func(v float64) string { return format.Percent(v*100, 1) },
		"tabURL": func(region, tab string) string {
			return "/?" + url.Values{"region": {region}, "tab": {tab}}.Encode()
		},
	}).ParseFS(assets, "assets/dashboard.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse dashboard template")
	}
	return &pageRenderer{tmpl: tmpl}, nil
}

func (pr *pageRenderer) render(w http.ResponseWriter, status int, p page) error {
	var buf bytes.Buffer
	if err := pr.tmpl.Execute(&buf, p); err != nil {
		return errors.Wrap(err, "render dashboard")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := page{
		Title:   h.cfg.Title,
		Variant: h.cfg.Variant,
		Tabs:    h.cfg.Variant.Tabs(),
		Tab:     h.cfg.Variant.Resolve(q.Get("tab")),
	}

	status, err := h.fillPage(r, &p, q.Get("region"))
	if err != nil {
		p.Error = userMessage(err, status)
		h.report(r, err, status)
	} else {
		h.breadcrumb(r, "region selected", "dashboard", map[string]interface{}{
			"region": p.Region,
			"tab":    p.Tab,
		})
	}

	if rerr := h.page.render(w, status, p); rerr != nil {
		h.log.Errorw("Failed to render dashboard", "error", rerr)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// fillPage loads what the selected tab shows. An error halts the render
// after the region selector, which stays usable.
func (h *Handler) fillPage(r *http.Request, p *page, region string) (int, error) {
	ctx := r.Context()

	snap, err := h.deps.Artifacts.Load(ctx)
	if err != nil {
		return statusFor(err), err
	}

	p.Regions = snap.Dataset.Regions()
	if len(p.Regions) == 0 {
		err := errors.Wrap(errors.ErrNotFound, "dataset has no regions")
		return statusFor(err), err
	}

	if region == "" {
		p.Region = p.Regions[0]
	} else {
		canonical, ok := snap.Dataset.FindRegion(region)
		if !ok {
			p.Region = region
			err := errors.Wrapf(errors.ErrNotFound, "wilayah %q tidak ditemukan", region)
			return statusFor(err), err
		}
		p.Region = canonical
	}

	if latest, ok := snap.Dataset.Latest(p.Region); ok {
		p.Year = latest.Year
		p.Cards = ecologyCards(latest)
	}

	switch p.Tab {
	case TabStatistics:
		return h.fillStatistics(r, p)
	case TabFactors:
		return h.fillFactors(r, p)
	case TabComparison:
		return h.fillComparison(r, p)
	default:
		return h.fillPrediction(r, p)
	}
}

func (h *Handler) fillPrediction(r *http.Request, p *page) (int, error) {
	a, err := h.deps.Assessor.Assess(r.Context(), p.Region, "")
	if err != nil {
		return statusFor(err), err
	}
	p.Assessment = a
	p.Thresholds = h.deps.Assessor.Thresholds()
	return http.StatusOK, nil
}

func (h *Handler) fillStatistics(r *http.Request, p *page) (int, error) {
	regionStats, err := h.deps.Stats.Region(r.Context(), p.Region)
	if err != nil {
		return statusFor(err), err
	}
	overall, err := h.deps.Stats.Overall(r.Context())
	if err != nil {
		return statusFor(err), err
	}
	p.RegionStats = regionStats
	p.OverallStats = overall
	return http.StatusOK, nil
}

func (h *Handler) fillFactors(r *http.Request, p *page) (int, error) {
	ranking, err := h.deps.Importance.Ranking(r.Context(), "")
	if err != nil {
		return statusFor(err), err
	}
	p.Ranking = ranking
	p.Top = topScores(ranking, h.deps.Importance.TopN())
	if ranking.Fallback {
		p.Warnings = append(p.Warnings, "Skor kepentingan tidak tersedia, bobot seragam digunakan: "+ranking.FallbackReason)
	}
	return http.StatusOK, nil
}

func (h *Handler) fillComparison(r *http.Request, p *page) (int, error) {
	assessments, err := h.deps.Assessor.Compare(r.Context(), p.Region)
	if err != nil {
		return statusFor(err), err
	}
	comparison, err := h.deps.Importance.Comparison(r.Context())
	if err != nil {
		return statusFor(err), err
	}
	p.ModelAssessments = assessments
	p.Comparison = comparison
	return http.StatusOK, nil
}

// ecologyCards are the four metric cards for the region's latest year
func ecologyCards(obs observation.Observation) []card {
	return []card{
		{Label: "Curah Hujan", Value: format.WithUnit(obs.Rainfall, 0, "mm")},
		{Label: "Sampah", Value: format.WithUnit(obs.Waste, 0, "Ton")},
		{Label: "Kepadatan", Value: format.WithUnit(obs.Density, 0, "Jiwa/km²")},
		{Label: "Sanitasi", Value: format.Percent(obs.Sanitation, 1)},
	}
}

package web

import (
	"context"
	"io"
	"net/http"
	"time"

	"dbdwatch/internal/domain/importance"
	"dbdwatch/internal/domain/observation"
	"dbdwatch/internal/domain/prediction"
	domainstats "dbdwatch/internal/domain/stats"
	"dbdwatch/internal/services/catalog"
	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
)

// ArtifactSource provides the memoized dataset and bundle
type ArtifactSource interface {
	Load(ctx context.Context) (*catalog.Snapshot, error)
}

// Assessor predicts regions
type Assessor interface {
	Assess(ctx context.Context, region, modelName string) (*prediction.Assessment, error)
	Compare(ctx context.Context, region string) ([]prediction.Assessment, error)
	Thresholds() prediction.Thresholds
}

// ImportanceSource ranks features per model
type ImportanceSource interface {
	Ranking(ctx context.Context, modelName string) (*importance.Ranking, error)
	Comparison(ctx context.Context) (*importance.Comparison, error)
	TopN() int
}

// StatsSource computes descriptive statistics
type StatsSource interface {
	Overall(ctx context.Context) ([]domainstats.Summary, error)
	Region(ctx context.Context, region string) ([]domainstats.Summary, error)
	History(ctx context.Context, region string, column observation.Column) (*domainstats.Series, error)
}

// HistoryStore reads persisted prediction snapshots
type HistoryStore interface {
	GetHistory(ctx context.Context, region string, since time.Time) ([]prediction.Prediction, error)
}

// Exporter writes the xlsx report
type Exporter interface {
	Write(ctx context.Context, w io.Writer) error
}

// Config selects the dashboard variant and title
type Config struct {
	Variant Variant
	Title   string
}

// Deps are the services behind the HTTP surface. History may be nil when
// no prediction store is configured. Tracker may be nil.
type Deps struct {
	Artifacts  ArtifactSource
	Assessor   Assessor
	Importance ImportanceSource
	Stats      StatsSource
	History    HistoryStore
	Exporter   Exporter
	Tracker    errors.Tracker
}

// Handler serves the dashboard, JSON API, charts and export
type Handler struct {
	cfg  Config
	deps Deps
	log  *logger.Logger
	page *pageRenderer
}

func NewHandler(cfg Config, deps Deps, log *logger.Logger) (*Handler, error) {
	if !cfg.Variant.Valid() {
		cfg.Variant = VariantComparison
	}

	page, err := newPageRenderer()
	if err != nil {
		return nil, err
	}

	return &Handler{
		cfg:  cfg,
		deps: deps,
		log:  log.With("component", "web"),
		page: page,
	}, nil
}

// Register mounts every route. api wraps the JSON endpoints (rate limiting).
func (h *Handler) Register(mux *http.ServeMux, api func(http.Handler) http.Handler) {
	if api == nil {
		api = func(next http.Handler) http.Handler { return next }
	}
	apiRoute := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, api(fn))
	}

	mux.HandleFunc("GET /{$}", h.handleDashboard)

	apiRoute("GET /api/regions", h.handleRegions)
	apiRoute("GET /api/regions/{region}/assessment", h.handleAssessment)
	apiRoute("GET /api/regions/{region}/comparison", h.handleRegionComparison)
	apiRoute("GET /api/regions/{region}/stats", h.handleRegionStats)
	apiRoute("GET /api/regions/{region}/history", h.handleRegionHistory)
	apiRoute("GET /api/models", h.handleModels)
	apiRoute("GET /api/importance", h.handleImportance)
	apiRoute("GET /api/importance/comparison", h.handleImportanceComparison)
	apiRoute("GET /api/statistics", h.handleStatistics)

	mux.HandleFunc("GET /charts/importance.png", h.handleImportanceChart)
	mux.HandleFunc("GET /charts/history.png", h.handleHistoryChart)
	mux.HandleFunc("GET /charts/comparison.png", h.handleComparisonChart)

	mux.HandleFunc("GET /export.xlsx", h.handleExport)
}

// breadcrumb records a dashboard action for the error tracker
func (h *Handler) breadcrumb(r *http.Request, message, category string, data map[string]interface{}) {
	if h.deps.Tracker == nil {
		return
	}
	h.deps.Tracker.AddBreadcrumb(r.Context(), message, category, errors.LevelInfo, data)
}

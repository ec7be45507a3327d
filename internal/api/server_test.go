package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbdwatch/internal/api/health"
	"dbdwatch/internal/api/middleware"
	"dbdwatch/internal/api/web"
	"dbdwatch/internal/domain/prediction"
	"dbdwatch/internal/metrics"
	"dbdwatch/internal/services/importance"
	"dbdwatch/internal/services/report"
	"dbdwatch/internal/services/risk"
	"dbdwatch/internal/services/stats"
	"dbdwatch/internal/testsupport"
	"dbdwatch/pkg/logger"
	"dbdwatch/pkg/templates"
)

func newTestServer(t *testing.T, rps float64, burst int) http.Handler {
	t.Helper()
	metrics.Init()

	log := logger.Nop()
	cat := testsupport.Catalog(t)
	riskSvc := risk.NewService(cat, prediction.Thresholds{Medium: 20, High: 50},
		risk.NewRecommender(risk.DefaultRecommendationThresholds, templates.Get()), nil, log)
	impSvc := importance.NewService(cat, importance.Config{TopN: 10, PermutationRepeats: 2, Seed: 1}, log)

	webHandler, err := web.NewHandler(web.Config{Variant: web.VariantComparison, Title: "DBD"}, web.Deps{
		Artifacts:  cat,
		Assessor:   riskSvc,
		Importance: impSvc,
		Stats:      stats.NewService(cat),
		Exporter:   report.NewExporter(cat, riskSvc, impSvc, log),
	}, log)
	require.NoError(t, err)

	healthHandler := health.New(log, "dbdwatch", "test", health.Component{Name: "artifacts", Checker: cat, Critical: true})

	return NewServer(ServerConfig{RateLimitRPS: rps, RateLimitBurst: burst}, healthHandler, webHandler, log).Handler()
}

func TestServer_Routes(t *testing.T) {
	srv := newTestServer(t, 100, 100)

	for target, want := range map[string]int{
		"/":             http.StatusOK,
		"/live":         http.StatusOK,
		"/ready":        http.StatusOK,
		"/health":       http.StatusOK,
		"/metrics":      http.StatusOK,
		"/api/regions":  http.StatusOK,
		"/no/such/page": http.StatusNotFound,
	} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequestWithContext(context.Background(), http.MethodGet, target, nil))
		assert.Equal(t, want, rec.Code, target)
		assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader), target)
	}
}

func TestServer_RateLimitOnlyOnAPI(t *testing.T) {
	srv := newTestServer(t, 0.001, 1)

	codes := func(target string) []int {
		var out []int
		for i := 0; i < 2; i++ {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
			out = append(out, rec.Code)
		}
		return out
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes("/api/regions"))
	assert.Equal(t, []int{http.StatusOK, http.StatusOK}, codes("/live"))
}

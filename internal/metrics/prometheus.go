package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Inference metrics
	Predictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbd_predictions_total",
			Help: "Total number of risk predictions",
		},
		[]string{"model", "tier"},
	)

	InferenceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dbd_inference_duration_seconds",
			Help:    "Single-row inference latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"model"},
	)

	InferenceErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbd_inference_errors_total",
			Help: "Total number of failed inference calls",
		},
		[]string{"model"},
	)

	ImportanceFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbd_importance_fallback_total",
			Help: "Times uniform importance weights replaced a failed source",
		},
		[]string{"model"},
	)

	AssessmentCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbd_assessment_cache_total",
			Help: "Assessment cache lookups",
		},
		[]string{"result"}, // result: hit|miss|error
	)

	// HTTP metrics
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbd_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dbd_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbd_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dbd_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dbd_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Telegram metrics
	TelegramCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbd_telegram_commands_total",
			Help: "Telegram bot commands handled",
		},
		[]string{"command", "status"},
	)
)

var initOnce sync.Once

// Init registers all metrics with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			Predictions,
			InferenceDuration,
			InferenceErrors,
			ImportanceFallbacks,
			AssessmentCache,
			HTTPRequests,
			HTTPDuration,
			WorkerExecutions,
			WorkerDuration,
			WorkerLastRun,
			TelegramCommands,
		)
	})
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordPrediction records one inference call
func RecordPrediction(model, tier string, duration time.Duration, err error) {
	InferenceDuration.WithLabelValues(model).Observe(duration.Seconds())
	if err != nil {
		InferenceErrors.WithLabelValues(model).Inc()
		return
	}
	Predictions.WithLabelValues(model, tier).Inc()
}

// RecordImportanceFallback records a uniform-weight substitution
func RecordImportanceFallback(model string) {
	ImportanceFallbacks.WithLabelValues(model).Inc()
}

// RecordCacheLookup records an assessment cache lookup result
func RecordCacheLookup(result string) {
	AssessmentCache.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records a served request by route pattern
func RecordHTTPRequest(route string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(route, statusClass(status)).Inc()
	HTTPDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordTelegramCommand records a handled bot command
func RecordTelegramCommand(command string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	TelegramCommands.WithLabelValues(command, status).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

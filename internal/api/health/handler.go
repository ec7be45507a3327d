package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"dbdwatch/pkg/logger"
)

// Checker is anything that can report its own health
type Checker interface {
	Health(ctx context.Context) error
}

// Component is a named dependency. Critical components gate readiness;
// optional ones only degrade the health report.
type Component struct {
	Name     string
	Checker  Checker
	Critical bool
}

// Handler provides health check endpoints
type Handler struct {
	log         *logger.Logger
	components  []Component
	startTime   time.Time
	serviceName string
	version     string
}

func New(log *logger.Logger, serviceName, version string, components ...Component) *Handler {
	sort.SliceStable(components, func(i, j int) bool { return components[i].Name < components[j].Name })
	return &Handler{
		log:         log.With("component", "health"),
		components:  components,
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                     `json:"status"` // healthy, degraded, unhealthy
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Status       string `json:"status"`
	Critical     bool   `json:"critical"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HandleLiveness returns 200 while the process runs
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HandleReadiness returns 503 while any critical component is failing
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, criticalDown, _ := h.check(ctx)

	code := http.StatusOK
	if criticalDown {
		status.Status = "unhealthy"
		code = http.StatusServiceUnavailable
		h.log.Warnw("Readiness check failed", "checks", status.Checks)
	}
	writeJSON(w, code, status)
}

// HandleHealth returns detailed status; optional failures only degrade it
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status, criticalDown, optionalDown := h.check(ctx)

	code := http.StatusOK
	switch {
	case criticalDown:
		status.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	case optionalDown:
		status.Status = "degraded"
	}
	writeJSON(w, code, status)
}

func (h *Handler) check(ctx context.Context) (status HealthStatus, criticalDown, optionalDown bool) {
	status = HealthStatus{
		Status:    "healthy",
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]ComponentHealth, len(h.components)),
	}

	for _, c := range h.components {
		start := time.Now()
		err := c.Checker.Health(ctx)

		ch := ComponentHealth{Status: "healthy", Critical: c.Critical, ResponseTime: time.Since(start).String()}
		if err != nil {
			ch.Status = "unhealthy"
			ch.Error = err.Error()
			if c.Critical {
				criticalDown = true
			} else {
				optionalDown = true
			}
		}
		status.Checks[c.Name] = ch
	}
	return status, criticalDown, optionalDown
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

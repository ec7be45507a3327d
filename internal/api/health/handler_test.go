package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
)

type checkerFunc func(context.Context) error

func (f checkerFunc) Health(ctx context.Context) error { return f(ctx) }

var (
	ok   = checkerFunc(func(context.Context) error { return nil })
	down = checkerFunc(func(context.Context) error { return errors.ErrUnavailable })
)

func serve(t *testing.T, handler http.HandlerFunc) (int, HealthStatus) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return rec.Code, status
}

func TestHandler_Healthy(t *testing.T) {
	h := New(logger.Nop(), "dbdwatch", "dev",
		Component{Name: "artifacts", Checker: ok, Critical: true},
		Component{Name: "redis", Checker: ok},
	)

	code, status := serve(t, h.HandleHealth)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", status.Status)
	assert.Len(t, status.Checks, 2)
}

func TestHandler_OptionalFailureDegrades(t *testing.T) {
	h := New(logger.Nop(), "dbdwatch", "dev",
		Component{Name: "artifacts", Checker: ok, Critical: true},
		Component{Name: "redis", Checker: down},
	)

	code, status := serve(t, h.HandleHealth)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "unhealthy", status.Checks["redis"].Status)

	code, _ = serve(t, h.HandleReadiness)
	assert.Equal(t, http.StatusOK, code)
}

func TestHandler_CriticalFailure(t *testing.T) {
	h := New(logger.Nop(), "dbdwatch", "dev", Component{Name: "artifacts", Checker: down, Critical: true})

	code, status := serve(t, h.HandleReadiness)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", status.Status)
	assert.Contains(t, status.Checks["artifacts"].Error, "unavailable")

	code, _ = serve(t, h.HandleHealth)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestHandler_Liveness(t *testing.T) {
	h := New(logger.Nop(), "dbdwatch", "dev", Component{Name: "artifacts", Checker: down, Critical: true})

	rec := httptest.NewRecorder()
	h.HandleLiveness(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}

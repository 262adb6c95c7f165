// AngelaMos | 2026
// handler_test.go

package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/episode-ledger/internal/health"
)

type pinger func(ctx context.Context) error

func (p pinger) Ping(ctx context.Context) error { return p(ctx) }

var (
	up   = pinger(func(context.Context) error { return nil })
	down = pinger(func(context.Context) error { return errors.New("refused") })
)

func get(t *testing.T, h *health.Handler, path string) (int, health.ReadinessResponse) {
	t.Helper()

	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body health.ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestReadiness(t *testing.T) {
	status, body := get(t, health.NewHandler(
		health.Dependency{Name: "database", Checker: up},
		health.Dependency{Name: "redis", Checker: up},
	), "/readyz")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body.Status)
	require.Len(t, body.Checks, 2)
	assert.Equal(t, "database", body.Checks[0].Name)
	assert.Equal(t, "redis", body.Checks[1].Name)

	status, body = get(t, health.NewHandler(
		health.Dependency{Name: "database", Checker: up},
		health.Dependency{Name: "redis", Checker: down},
	), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "degraded", body.Status)
	assert.False(t, body.Checks[1].Healthy)
	assert.Equal(t, "ping failed", body.Checks[1].Message)
}

func TestLifecycleFlags(t *testing.T) {
	h := health.NewHandler(health.Dependency{Name: "database", Checker: up})

	status, body := get(t, h, "/livez")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body.Status)

	h.SetReady(false)
	status, body = get(t, h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "not_ready", body.Status)

	h.SetShutdown(true)
	status, body = get(t, h, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "shutting_down", body.Status)
}

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestOpsRouterHealth(t *testing.T) {
	w := serve(t, NewOpsRouter(prometheus.NewRegistry()), "/healthz")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestOpsRouterReadiness(t *testing.T) {
	ok := Check{Name: "store", Probe: func(context.Context) error { return nil }}
	down := Check{Name: "redis", Probe: func(context.Context) error { return errors.New("connection refused") }}

	t.Run("all checks pass", func(t *testing.T) {
		w := serve(t, NewOpsRouter(prometheus.NewRegistry(), ok), "/readyz")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("one check fails", func(t *testing.T) {
		w := serve(t, NewOpsRouter(prometheus.NewRegistry(), ok, down), "/readyz")
		require.Equal(t, http.StatusServiceUnavailable, w.Code)

		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "ok", body["store"])
		assert.Equal(t, "connection refused", body["redis"])
	})
}

func TestOpsRouterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	promauto.With(reg).NewCounter(prometheus.CounterOpts{Name: "impactx_test_total", Help: "test"}).Inc()

	w := serve(t, NewOpsRouter(reg), "/metrics")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "impactx_test_total 1")
}

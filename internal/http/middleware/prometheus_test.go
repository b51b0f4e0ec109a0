package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMetricsApp(t *testing.T) (*fiber.App, *PrometheusMiddleware, *prometheus.Registry) {
	t.Helper()
	// Fresh registry per test to avoid duplicate registration.
	reg := prometheus.NewRegistry()
	pm, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(pm.Handler())

	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	app.Get("/contactos", ok)
	app.Delete("/contactos/:id", ok)
	app.Get("/productos/:id", ok)
	app.Get("/productos/:id/imagen", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusServiceUnavailable, "storage")
	})
	app.Get("/metrics", ok)
	app.Get("/healthz", ok)

	return app, pm, reg
}

func TestPrometheusMiddleware_Counts(t *testing.T) {
	app, pm, _ := newMetricsApp(t)

	requests := []struct{ method, target string }{
		{"GET", "/contactos"},
		{"GET", "/contactos"},
		{"DELETE", "/contactos/3f1c"},
		{"GET", "/productos/a1"},
		{"GET", "/productos/b2"},
		{"GET", "/productos/a1/imagen"},
	}
	for _, r := range requests {
		_, err := app.Test(httptest.NewRequest(r.method, r.target, nil))
		require.NoError(t, err)
	}

	tests := []struct {
		method, path, status string
		want                 float64
	}{
		{"GET", "/contactos", "200", 2},
		{"DELETE", "/contactos/:id", "200", 1},
		{"GET", "/productos/:id", "200", 2},
		{"GET", "/productos/:id/imagen", "503", 1},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			got := testutil.ToFloat64(pm.requestCount.WithLabelValues(tt.method, tt.path, tt.status))
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, 4, testutil.CollectAndCount(pm.requestDuration))
}

func TestPrometheusMiddleware_SkipsInfraEndpoints(t *testing.T) {
	app, _, reg := newMetricsApp(t)

	for _, target := range []string{"/metrics", "/healthz"} {
		_, err := app.Test(httptest.NewRequest("GET", target, nil))
		require.NoError(t, err)
	}

	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		assert.Empty(t, mf.GetMetric(), mf.GetName())
	}
}

func TestPrometheusMiddleware_UnmatchedRoutes(t *testing.T) {
	app, pm, _ := newMetricsApp(t)

	for _, target := range []string{"/wp-login.php", "/admin/.env", "/x/y/z"} {
		_, err := app.Test(httptest.NewRequest("GET", target, nil))
		require.NoError(t, err)
	}

	assert.Equal(t, float64(3), testutil.ToFloat64(pm.requestCount.WithLabelValues("GET", unmatchedPath, "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(pm.requestCount))
}

func TestPrometheusMiddleware_MethodNotAllowed(t *testing.T) {
	app, pm, _ := newMetricsApp(t)

	for _, r := range []struct{ method, target string }{
		{"POST", "/contactos"},
		{"PUT", "/contactos/3f1c"},
	} {
		resp, err := app.Test(httptest.NewRequest(r.method, r.target, nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusMethodNotAllowed, resp.StatusCode)
	}

	assert.Equal(t, float64(1), testutil.ToFloat64(pm.requestCount.WithLabelValues("POST", unmatchedPath, "405")))
	assert.Equal(t, float64(1), testutil.ToFloat64(pm.requestCount.WithLabelValues("PUT", unmatchedPath, "405")))
	assert.Equal(t, 2, testutil.CollectAndCount(pm.requestCount))
}

func TestNewPrometheusMiddleware_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	_, err = NewPrometheusMiddleware(reg)
	assert.Error(t, err)
}

package routes

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shopmandi/shopmandi-backend/pkg/config"
	"github.com/shopmandi/shopmandi-backend/pkg/logger"
	"github.com/shopmandi/shopmandi-backend/pkg/metrics"
)

func newTestRouter(t *testing.T, mutate func(*Deps)) http.Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.Uploads.LocalDir = t.TempDir()
	cfg.Uploads.PublicPath = "/uploads"

	deps := Deps{
		Config: cfg,
		Logger: logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard}),
	}
	if mutate != nil {
		mutate(&deps)
	}
	return NewRouter(deps)
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-ShopMandi-Env"); got != "test" {
		t.Fatalf("expected env header, got %q", got)
	}
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t, nil)

	paths := []string{
		"/api/users/profile",
		"/api/cart",
		"/api/wishlist",
		"/api/orders/myorders",
		"/api/notifications",
		"/api/admin/stats",
	}
	for _, path := range paths {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestCatalogIsPublic(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	// No product service is wired, so the handler reports an internal
	// failure rather than an auth challenge.
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestMetricsEndpointMountedWithRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()

	router := newTestRouter(t, func(deps *Deps) {
		deps.MetricsRegistry = registry
		deps.HTTPMetrics = metrics.NewHTTPMetrics(registry)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpointAbsentWithoutRegistry(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

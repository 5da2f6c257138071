package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"onehr/internal/platform/config"
	"onehr/internal/platform/metrics"
)

func testConfig() config.Config {
	return config.Config{JWTSecret: "test-secret", MaxBodyBytes: 1 << 20, MetricsEnabled: true}
}

func TestHealthAndReadiness(t *testing.T) {
	ready := errors.New("db down")
	router := NewRouter(testConfig(), Services{
		Metrics: metrics.New(),
		Ready:   func(ctx context.Context) error { return ready },
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected healthz 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected readyz 503, got %d", rec.Code)
	}

	ready = nil
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected readyz 200, got %d", rec.Code)
	}
}

func TestAPIRoutesRequireAuthentication(t *testing.T) {
	router := NewRouter(testConfig(), Services{Metrics: metrics.New()})

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/employees"},
		{http.MethodGet, "/api/v1/hr-calendar/month"},
		{http.MethodGet, "/api/v1/hr-calendar/holidays"},
		{http.MethodPost, "/api/v1/hr-calendar/initialize-us-holidays"},
		{http.MethodGet, "/api/v1/notifications"},
		{http.MethodPost, "/api/v1/notifications/generate-calendar-alerts"},
		{http.MethodDelete, "/api/v1/calendar-events/custom-1"},
		{http.MethodGet, "/api/v1/auth/me"},
	}
	for _, p := range paths {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(p.method, p.path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", p.method, p.path, rec.Code)
		}
		if rec.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s %s: missing request id", p.method, p.path)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	collector := metrics.New()
	router := NewRouter(testConfig(), Services{Metrics: collector})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := collector.Snapshot()["requestsTotal"]; got != uint64(2) {
		t.Fatalf("expected 2 counted requests, got %v", got)
	}
}

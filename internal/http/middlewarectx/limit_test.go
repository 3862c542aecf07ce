package middlewarectx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/coworking-membership/internal/metrics"
)

func newNoopLoggerLimit() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRateLimitMiddleware(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allows requests within burst", func(t *testing.T) {
		h := RateLimitMiddleware(newNoopLoggerLimit(), 1, 3)(okHandler)
		for range 3 {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/login", nil)
			req.RemoteAddr = "10.0.0.1:5000"
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("blocks requests exceeding burst per address", func(t *testing.T) {
		h := RateLimitMiddleware(newNoopLoggerLimit(), 0.001, 1)(okHandler)

		first := httptest.NewRequest(http.MethodPost, "/api/v1/login", nil)
		first.RemoteAddr = "10.0.0.2:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, first)
		assert.Equal(t, http.StatusOK, rec.Code)

		second := httptest.NewRequest(http.MethodPost, "/api/v1/login", nil)
		second.RemoteAddr = "10.0.0.2:6000"
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, second)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)

		other := httptest.NewRequest(http.MethodPost, "/api/v1/login", nil)
		other.RemoteAddr = "10.0.0.3:5000"
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, other)
		assert.Equal(t, http.StatusOK, rec.Code, "other clients keep their own budget")
	})
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/members/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	before := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/members/{id}", "204"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/members/8d0f2c4e-1111-4d7b-9a44-3c0e9b8f5a21", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	after := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/members/{id}", "204"))
	assert.Equal(t, before+1, after)
}

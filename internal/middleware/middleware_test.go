package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bryanwahyu/automaton-compliance/internal/metrics"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(GetTenantFromContext(r.Context())))
})

func TestAPIKeyAuth(t *testing.T) {
	h := APIKeyAuth(map[string]string{"acme": "k-acme"})(okHandler)

	cases := []struct {
		name   string
		path   string
		header string
		code   int
		body   string
	}{
		{name: "bearer", path: "/v1/acme/x", header: "Bearer k-acme", code: http.StatusOK, body: "acme"},
		{name: "raw key", path: "/v1/acme/x", header: "k-acme", code: http.StatusOK, body: "acme"},
		{name: "missing", path: "/v1/acme/x", code: http.StatusUnauthorized},
		{name: "wrong", path: "/v1/acme/x", header: "Bearer nope", code: http.StatusUnauthorized},
		{name: "probe skips auth", path: "/healthz/live", code: http.StatusOK},
		{name: "metrics skips auth", path: "/metrics", code: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.code, rec.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestAPIKeyAuthDisabledWithoutKeys(t *testing.T) {
	rec := httptest.NewRecorder()
	APIKeyAuth(nil)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/acme/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireValidTenant(t *testing.T) {
	r := chi.NewRouter()
	r.Use(APIKeyAuth(map[string]string{"acme": "k-acme"}))
	r.Route("/v1/{tenant}", func(r chi.Router) {
		r.Use(RequireValidTenant)
		r.Get("/ping", okHandler)
	})

	do := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer k-acme")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, do("/v1/acme/ping"))
	assert.Equal(t, http.StatusForbidden, do("/v1/globex/ping"))
	assert.Equal(t, http.StatusBadRequest, do("/v1/bad.tenant/ping"))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	h := rl.Middleware(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/acme/x", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	// other clients have their own bucket
	req := httptest.NewRequest(http.MethodGet, "/v1/acme/x", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterSweepsIdleVisitors(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return now }
	rl.Allow("a")
	rl.Allow("b")
	require.Equal(t, 2, rl.size())

	now = now.Add(visitorTTL + sweepInterval + time.Second)
	rl.Allow("c")
	assert.Equal(t, 1, rl.size())
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/acme/compliance/check", nil))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
	assert.Equal(t, int64(len("short and stout")), fields["bytes"])
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	h := Metrics(m)(okHandler)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPRequestsInProgress))

	rec := httptest.NewRecorder()
	MetricsHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(rec.Body.String(), "http_requests_total"))
}

func TestHealthHandler(t *testing.T) {
	checkers := map[string]HealthChecker{
		"ok":   CheckFunc(func(context.Context) error { return nil }),
		"down": CheckFunc(func(context.Context) error { return errors.New("dial tcp: refused") }),
	}
	rec := httptest.NewRecorder()
	HealthHandler(checkers)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "refused")

	rec = httptest.NewRecorder()
	ReadinessHandler(CheckFunc(func(context.Context) error { return nil }))(rec, httptest.NewRequest(http.MethodGet, "/healthz/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	ReadinessHandler(checkers["down"])(rec, httptest.NewRequest(http.MethodGet, "/healthz/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestValidators(t *testing.T) {
	assert.NoError(t, ValidateTenantID("acme-01"))
	assert.Error(t, ValidateTenantID(""))
	assert.Error(t, ValidateTenantID("a/b"))

	assert.NoError(t, ValidateJurisdiction("EU"))
	assert.NoError(t, ValidateJurisdiction("European Union"))
	assert.Error(t, ValidateJurisdiction(" "))
	assert.Error(t, ValidateJurisdiction("EU; DROP"))

	assert.NoError(t, ValidateReportID("0b0f7f0e-2a44-4b43-9a31-2a4d6b8f7c11"))
	assert.Error(t, ValidateReportID("not-a-uuid"))

	assert.Equal(t, "hello", SanitizeString(" hel\x00lo\x07 "))
	assert.Equal(t, 20, ValidateLimit(0))
	assert.Equal(t, 100, ValidateLimit(1000))
	assert.Equal(t, 7, ValidateDays(-1))
	assert.Equal(t, 365, ValidateDays(9000))
}

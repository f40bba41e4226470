package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	appcompliance "github.com/bryanwahyu/automaton-compliance/internal/application/compliance"
	domain "github.com/bryanwahyu/automaton-compliance/internal/domain/compliance"
	"github.com/bryanwahyu/automaton-compliance/internal/logging"
	"github.com/bryanwahyu/automaton-compliance/internal/metrics"
	"github.com/bryanwahyu/automaton-compliance/internal/middleware"
)

// maxBodyBytes batas ukuran body check request (test report bisa besar)
const maxBodyBytes = 8 << 20

// ComplianceService is the use-case surface served over HTTP.
type ComplianceService interface {
	RunCheck(ctx context.Context, cmd appcompliance.CheckCommand) (*domain.Report, error)
	Get(ctx context.Context, tenant, id string) (*domain.Report, error)
	Latest(ctx context.Context, tenant string, limit int) ([]*domain.ReportRecord, error)
	Summary(ctx context.Context, tenant string, days int) (domain.TenantSummary, error)
}

// Options wiring opsional untuk router
type Options struct {
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	APIKeys        map[string]string
	RateRPS        float64
	RateBurst      int
	AllowedOrigins []string
	Health         map[string]middleware.HealthChecker
	Ready          middleware.HealthChecker
	// ReloadCatalog enables POST /admin/catalog/reload when set.
	ReloadCatalog func(ctx context.Context) (int, error)
}

type Router struct {
	svc    ComplianceService
	opts   Options
	logger *zap.Logger
}

func NewRouter(svc ComplianceService, opts Options) http.Handler {
	r := &Router{svc: svc, opts: opts, logger: logging.OrNop(opts.Logger)}
	mux := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(middleware.Logging(r.logger))
	mux.Use(middleware.Metrics(opts.Metrics))
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	if opts.RateRPS > 0 {
		mux.Use(middleware.NewRateLimiter(opts.RateRPS, opts.RateBurst).Middleware)
	}

	mux.Get("/health", middleware.HealthHandler(opts.Health))
	mux.Get("/healthz/live", middleware.LivenessHandler)
	mux.Get("/healthz/ready", middleware.ReadinessHandler(opts.Ready))
	if opts.Gatherer != nil {
		mux.Handle("/metrics", middleware.MetricsHandler(opts.Gatherer))
	}
	if opts.ReloadCatalog != nil {
		mux.Post("/admin/catalog/reload", r.wrap(r.handleReloadCatalog))
	}

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Use(middleware.RequireValidTenant)
		rt.Post("/compliance/check", r.wrap(r.handleCheck))
		rt.Get("/compliance/reports/latest", r.wrap(r.handleLatest))
		rt.Get("/compliance/reports/{id}", r.wrap(r.handleGet))
		rt.Get("/compliance/summary", r.wrap(r.handleSummary))
	})

	return mux
}

// badRequest menandai error validasi input
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var br badRequest
		switch {
		case errors.As(err, &br), errors.Is(err, domain.ErrInvalidReport):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, sql.ErrNoRows):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrCatalogUnavailable):
			http.Error(w, "compliance catalog unavailable", http.StatusServiceUnavailable)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			http.Error(w, "request cancelled", http.StatusServiceUnavailable)
		default:
			r.logger.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/{tenant}/compliance/check
// Body: {"jurisdiction": "EU", "subject": "build-42", "test_report": {...}}
func (r *Router) handleCheck(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")

	var body struct {
		Jurisdiction string            `json:"jurisdiction"`
		Subject      string            `json:"subject"`
		TestReport   domain.TestReport `json:"test_report"`
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		return badRequest{msg: "invalid JSON body: " + err.Error()}
	}
	body.Jurisdiction = middleware.SanitizeString(body.Jurisdiction)
	if err := middleware.ValidateJurisdiction(body.Jurisdiction); err != nil {
		return badRequest{msg: err.Error()}
	}

	rep, err := r.svc.RunCheck(req.Context(), appcompliance.CheckCommand{
		TenantID:     tenant,
		Subject:      middleware.SanitizeString(body.Subject),
		Jurisdiction: body.Jurisdiction,
		TestReport:   body.TestReport,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, rep)
}

// GET /v1/{tenant}/compliance/reports/latest?limit=
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.svc.Latest(req.Context(), tenant, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/{tenant}/compliance/reports/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateReportID(id); err != nil {
		return badRequest{msg: err.Error()}
	}

	rep, err := r.svc.Get(req.Context(), tenant, id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rep)
}

// GET /v1/{tenant}/compliance/summary?days=
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))
	days = middleware.ValidateDays(days)

	s, err := r.svc.Summary(req.Context(), tenant, days)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"tenant":  tenant,
		"days":    days,
		"summary": s,
	})
}

// POST /admin/catalog/reload
func (r *Router) handleReloadCatalog(w http.ResponseWriter, req *http.Request) error {
	n, err := r.opts.ReloadCatalog(req.Context())
	if err != nil {
		return errors.Join(domain.ErrCatalogUnavailable, err)
	}
	return writeJSON(w, http.StatusOK, map[string]any{"documents": n})
}

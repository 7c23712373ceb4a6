// Package api serves workbook scoring over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/sells-group/vendor-kpi/internal/chart"
	"github.com/sells-group/vendor-kpi/internal/config"
	"github.com/sells-group/vendor-kpi/internal/pipeline"
	"github.com/sells-group/vendor-kpi/internal/report"
)

// Server is the HTTP front end of the scoring pipeline.
type Server struct {
	pipeline  *pipeline.Pipeline
	metrics   *Metrics
	gatherer  prometheus.Gatherer
	limiter   *rate.Limiter
	maxUpload int64
	csvName   string
	chartOpts chart.Options
	origins   []string
}

// NewServer wires a Server. Metrics are registered on reg and exposed from it.
func NewServer(cfg *config.Config, p *pipeline.Pipeline, reg *prometheus.Registry) *Server {
	csvName := cfg.Report.CSVName
	if csvName == "" {
		csvName = report.DefaultCSVName
	}
	maxUpload := int64(cfg.Server.MaxUploadMB) << 20
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	limit := rate.Limit(cfg.Server.RateLimit)
	if cfg.Server.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Server.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Server{
		pipeline:  p,
		metrics:   NewMetrics(reg),
		gatherer:  reg,
		limiter:   rate.NewLimiter(limit, burst),
		maxUpload: maxUpload,
		csvName:   csvName,
		chartOpts: chart.Options{Width: cfg.Report.ChartWidth, Height: cfg.Report.ChartHeight},
		origins:   cfg.Server.CORSOrigins,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(s.instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(rateLimit(s.limiter))
		r.Use(middleware.Timeout(2 * time.Minute))
		r.Post("/score", s.handleScore)
		r.Post("/score/csv", s.handleScoreCSV)
		r.Post("/charts/{name}", s.handleChart)
	})
	return r
}

package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/LeonardoBeccarini/water_allocation/internal/optimizer"
	"github.com/LeonardoBeccarini/water_allocation/internal/telemetry"
	"github.com/LeonardoBeccarini/water_allocation/pkg/dedup"
	"github.com/LeonardoBeccarini/water_allocation/pkg/metrics"
	"github.com/LeonardoBeccarini/water_allocation/pkg/rabbitmq"
)

// BreakerReporter is satisfied by *optimizer.RemoteOptimizer.
type BreakerReporter interface {
	BreakerState() gobreaker.State
}

type Config struct {
	// Optimizer is normally an *optimizer.Resolver; results without a
	// provenance are treated as optimized.
	Optimizer optimizer.Optimizer
	Prober    optimizer.Prober
	Breaker   BreakerReporter

	Publisher   rabbitmq.IPublisher
	Deduper     *dedup.Deduper
	TopicPrefix string

	Telemetry *telemetry.Source
	Metrics   *metrics.Metrics
	Log       zerolog.Logger

	HTTPTimeout time.Duration
	CORSOrigins []string
	Now         func() time.Time
}

// Gateway is the planner API in front of the estimator and the optimizer.
type Gateway struct {
	cfg    Config
	router *chi.Mux
	log    zerolog.Logger
}

func NewGateway(cfg Config) *Gateway {
	if cfg.Optimizer == nil {
		cfg.Optimizer = optimizer.NewResolver(nil, cfg.Log)
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 15 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	g := &Gateway{
		cfg:    cfg,
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "gateway").Logger(),
	}
	g.routes()
	return g
}

func (g *Gateway) routes() {
	r := g.router
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(g.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: g.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", "X-Data-Source"},
		MaxAge:         300,
	}))

	r.Get("/healthz", g.handleHealth)
	r.Get("/readyz", g.handleReady)
	if g.cfg.Metrics != nil {
		r.Handle("/metrics", g.cfg.Metrics.Handler())
	}
	r.Route("/api", func(api chi.Router) {
		api.Get("/crops", g.handleCrops)
		api.Post("/estimate", g.handleEstimate)
		api.Post("/optimize", g.handleOptimize)
		api.Post("/export", g.handleExport)
		api.Get("/telemetry/latest", g.handleTelemetry)
	})
}

func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		g.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

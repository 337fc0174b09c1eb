package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/LeonardoBeccarini/water_allocation/internal/optimizer"
	"github.com/LeonardoBeccarini/water_allocation/pkg/metrics"
)

const maxBody = 4 << 20

type Config struct {
	Engine      optimizer.Optimizer
	Metrics     *metrics.Metrics
	Log         zerolog.Logger
	RunTimeout  time.Duration
	CORSOrigins []string
}

// Server exposes the search engine over the optimizer wire contract.
type Server struct {
	cfg    Config
	router *chi.Mux
	log    zerolog.Logger
}

func New(cfg Config) *Server {
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 30 * time.Second
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	s := &Server{
		cfg:    cfg,
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "optimizer-api").Logger(),
	}
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/optimize", s.handleOptimize)
		r.Get("/health", s.handleHealth)
	})
	if cfg.Metrics != nil {
		s.router.Handle("/metrics", cfg.Metrics.Handler())
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read body: %v", err))
		return
	}
	req, err := optimizer.DecodeRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Farms) < 1 {
		writeError(w, http.StatusBadRequest, "num_farms must be at least 1")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := req.Config.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RunTimeout)
	defer cancel()

	start := time.Now()
	res, err := s.cfg.Engine.Optimize(ctx, req)
	s.cfg.Metrics.ObserveSearch(err)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		s.log.Error().Err(err).Int("farms", len(req.Farms)).Msg("optimization failed")
		writeError(w, status, fmt.Sprintf("optimization failed: %v", err))
		return
	}
	res.Provenance, res.Warning = "", ""

	s.log.Info().
		Int("farms", len(req.Farms)).
		Float64("supply", req.TotalWaterSupply).
		Float64("shortage", res.Metrics.TotalShortage).
		Dur("took", time.Since(start)).
		Str("request_id", middleware.GetReqID(r.Context())).
		Msg("optimize")
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

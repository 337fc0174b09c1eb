package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/LeonardoBeccarini/water_allocation/internal/nsga2"
	"github.com/LeonardoBeccarini/water_allocation/internal/services/optimizer/app"
	"github.com/LeonardoBeccarini/water_allocation/pkg/logger"
	"github.com/LeonardoBeccarini/water_allocation/pkg/metrics"
)

// gRPC health service name probed by the gateway.
const healthService = "optimizer"

func main() {
	cfg := loadConfig()
	log := logger.New("optimizer", logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	opts := []nsga2.Option{nsga2.WithLogger(log)}
	if cfg.HasSeed {
		opts = append(opts, nsga2.WithSeed(cfg.Seed))
		log.Info().Uint64("seed", cfg.Seed).Msg("fixed search seed")
	}

	srv := app.New(app.Config{
		Engine:      nsga2.New(opts...),
		Metrics:     metrics.New("optimizer"),
		Log:         log,
		RunTimeout:  cfg.RunTimeout,
		CORSOrigins: cfg.Origins,
	})
	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// gRPC health
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatal().Err(err).Str("port", cfg.GRPCPort).Msg("grpc listen")
	}
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(healthService, healthpb.HealthCheckResponse_SERVING)
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, healthSrv)

	go func() {
		log.Info().Str("port", cfg.GRPCPort).Msg("grpc health listening")
		if err := gs.Serve(lis); err != nil {
			log.Error().Err(err).Msg("grpc server stopped")
		}
	}()
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http listening")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	healthSrv.SetServingStatus(healthService, healthpb.HealthCheckResponse_NOT_SERVING)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := hs.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	gs.GracefulStop()
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/LeonardoBeccarini/water_allocation/internal/optimizer"
	"github.com/LeonardoBeccarini/water_allocation/internal/services/gateway/app"
	"github.com/LeonardoBeccarini/water_allocation/internal/telemetry"
	"github.com/LeonardoBeccarini/water_allocation/pkg/dedup"
	"github.com/LeonardoBeccarini/water_allocation/pkg/logger"
	"github.com/LeonardoBeccarini/water_allocation/pkg/metrics"
	"github.com/LeonardoBeccarini/water_allocation/pkg/rabbitmq"
)

func main() {
	cfg := loadConfig()
	log := logger.New("gateway", logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New("planner")
	gw := app.Config{
		Metrics:     m,
		Log:         log,
		HTTPTimeout: ms(cfg.TimeoutMs),
		CORSOrigins: cfg.Origins,
		TopicPrefix: cfg.TopicPrefix,
	}

	// === Optimizer ===
	var remote optimizer.Optimizer
	resolverOpts := []optimizer.ResolverOption{optimizer.WithObserver(m)}
	if cfg.OptimizerURL != "" {
		ro := optimizer.NewRemoteOptimizer(optimizer.RemoteConfig{
			BaseURL:         cfg.OptimizerURL,
			Timeout:         cfg.OptimizerTimeout,
			BreakerFailures: cfg.CBFails,
			BreakerOpenFor:  ms(cfg.CBOpenMs),
			BreakerInterval: ms(cfg.CBIntervalMs),
		}, log)
		remote, gw.Breaker = ro, ro

		var prober optimizer.Prober = optimizer.NewHTTPProber(cfg.OptimizerURL, cfg.ProbeTimeout)
		if cfg.OptimizerGRPC != "" {
			gp, err := optimizer.NewGRPCProber(cfg.OptimizerGRPC, "optimizer")
			if err != nil {
				log.Fatal().Err(err).Msg("grpc prober")
			}
			defer gp.Close()
			prober = gp
		}
		gw.Prober = prober
		resolverOpts = append(resolverOpts, optimizer.WithProber(prober, cfg.ProbeTimeout))
		log.Info().Str("url", cfg.OptimizerURL).Msg("remote optimizer enabled")
	} else {
		log.Warn().Msg("OPTIMIZER_URL not set, every optimize request uses the fallback")
	}
	gw.Optimizer = optimizer.NewResolver(remote, log, resolverOpts...)

	// === MQTT ===
	if cfg.MQTTHost != "" {
		client, err := rabbitmq.NewRabbitMQConn(ctx, rabbitmq.RabbitMQConfig{
			Host:     cfg.MQTTHost,
			Port:     cfg.MQTTPort,
			User:     cfg.MQTTUser,
			Password: cfg.MQTTPassword,
			ClientID: cfg.ClientID,
		}, log)
		if err != nil {
			log.Error().Err(err).Msg("decision events disabled")
		} else {
			defer rabbitmq.CloseRabbitMQConn(client)
			gw.Publisher = rabbitmq.NewPublisher(client, 1, 5*time.Second, log)
			gw.Deduper = dedup.New(cfg.DedupTTL, 20000)
		}
	}

	// === Influx ===
	if cfg.InfluxURL != "" {
		influx := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)
		defer influx.Close()
		gw.Telemetry = telemetry.NewSource(influx, telemetry.Config{
			Org:    cfg.InfluxOrg,
			Bucket: cfg.InfluxBucket,
			Window: cfg.TelemetryWin,
		}, log)
	}

	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.NewGateway(gw).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("port", cfg.Port).Msg("gateway listening")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	if err := hs.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}

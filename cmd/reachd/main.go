package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/reach-hydroline-service/internal/adapter/aw"
	"github.com/couchcryptid/reach-hydroline-service/internal/adapter/esrihydro"
	"github.com/couchcryptid/reach-hydroline-service/internal/adapter/feature"
	httpadapter "github.com/couchcryptid/reach-hydroline-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/reach-hydroline-service/internal/adapter/kafka"
	"github.com/couchcryptid/reach-hydroline-service/internal/adapter/retryhttp"
	"github.com/couchcryptid/reach-hydroline-service/internal/adapter/waters"
	"github.com/couchcryptid/reach-hydroline-service/internal/config"
	"github.com/couchcryptid/reach-hydroline-service/internal/observability"
	"github.com/couchcryptid/reach-hydroline-service/internal/pipeline"
	"github.com/couchcryptid/reach-hydroline-service/internal/resolver"
)

func main() {
	// Local development convenience; absent .env files are fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	httpClient := retryhttp.New(cfg.RequestTimeout, cfg.RequestsPerSecond, logger)

	source := aw.New(httpClient, aw.Options{
		BaseURL:       cfg.AWBaseURL,
		FetchAttempts: cfg.FetchAttempts,
	}, logger, metrics)

	network := waters.New(httpClient, waters.Options{
		IndexingURL:    cfg.WatersIndexingURL,
		NavigationURL:  cfg.WatersNavigationURL,
		SearchRadiusKm: cfg.SearchRadiusKm,
		SnapAttempts:   cfg.SnapAttempts,
		TraceAttempts:  cfg.TraceAttempts,
	}, logger, metrics)

	basin := esrihydro.New(httpClient, esrihydro.Options{
		BaseURL:       cfg.HydrologyBaseURL,
		TraceAttempts: cfg.BasinTraceAttempts,
	}, logger, metrics)

	store := feature.NewStore(
		feature.NewLayerClient(httpClient, cfg.LineLayerURL, "line", cfg.FetchAttempts, logger, metrics),
		feature.NewLayerClient(httpClient, cfg.CentroidLayerURL, "centroid", cfg.FetchAttempts, logger, metrics),
		feature.NewLayerClient(httpClient, cfg.PointLayerURL, "point", cfg.FetchAttempts, logger, metrics),
	)

	var sink pipeline.ReachSink
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaSinkTopic, logger)
		sink = writer
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka sink disabled")
	}

	res := resolver.New(network, basin, resolver.Options{
		TraceAttempts: cfg.TraceAttempts,
	}, logger, metrics)

	p := pipeline.New(source, res, store, sink, logger, metrics, cfg.Workers)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if len(cfg.ReachIDs) == 0 {
			logger.Warn("REACH_IDS is empty, nothing to process")
			return
		}
		if _, err := p.Run(ctx, cfg.ReachIDs); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down on signal")
	case <-done:
		logger.Info("batch run complete, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

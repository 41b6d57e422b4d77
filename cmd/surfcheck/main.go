// Command surfcheck fetches the latest NDBC buoy observation and spectrum
// and the GFS-Wave forecast for each configured surf spot, and writes the
// records to the data directory and any configured stream sinks.
//
// By default it runs one cycle and exits non-zero if any spot failed. With
// RUN_INTERVAL set it repeats on that interval and serves /healthz, /readyz,
// /status and /metrics on HTTP_ADDR.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/surf-data-etl/internal/adapter/file"
	httpadapter "github.com/couchcryptid/surf-data-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/surf-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/surf-data-etl/internal/adapter/ndbc"
	"github.com/couchcryptid/surf-data-etl/internal/adapter/opendap"
	redisadapter "github.com/couchcryptid/surf-data-etl/internal/adapter/redis"
	"github.com/couchcryptid/surf-data-etl/internal/config"
	"github.com/couchcryptid/surf-data-etl/internal/domain"
	"github.com/couchcryptid/surf-data-etl/internal/observability"
	"github.com/couchcryptid/surf-data-etl/internal/pipeline"
)

func main() {
	buoyOnly := flag.Bool("buoy-only", false, "fetch buoy data only, skip the forecast")
	once := flag.Bool("once", false, "run a single cycle even when RUN_INTERVAL is set")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if err := run(cfg, *buoyOnly, *once, logger, metrics); err != nil {
		logger.Error("surfcheck failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, buoyOnly, once bool, logger *slog.Logger, metrics *observability.Metrics) error {
	client := ndbc.NewClient(cfg.NDBCBaseURL, cfg.NDBCStationTableURL, cfg.HTTPTimeout, metrics, logger)

	// Forecast capability (feature-flagged via FORECAST_ENABLED).
	var forecast *pipeline.ForecastPipeline
	if !buoyOnly {
		var opener domain.DatasetOpener
		if cfg.ForecastEnabled {
			opener = opendap.NewCachedOpener(
				opendap.NewOpener(cfg.NOMADSBaseURL, cfg.HTTPTimeout, metrics, logger),
				cfg.OpenDAPCacheSize, metrics)
		}
		var err error
		forecast, err = pipeline.NewForecastPipeline(opener, cfg.ForecastVariables, logger, metrics)
		if err != nil {
			return err
		}
	} else {
		logger.Info("buoy-only mode, forecast disabled")
	}

	sinks, closers := buildSinks(cfg, logger)
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				logger.Error("sink close error", "error", err)
			}
		}
	}()

	runner := pipeline.NewRunner(cfg.Spots,
		pipeline.NewBuoyPipeline(client, logger, metrics),
		forecast, client,
		pipeline.NewMultiSink(logger, metrics, sinks...),
		logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if once || cfg.RunInterval == 0 {
		if err := runner.RunOnce(ctx); err != nil {
			return err
		}
		logger.Info("done", "data_dir", cfg.DataDir)
		return nil
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, runner, runner, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start pipeline loop.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := runner.Run(ctx, cfg.RunInterval); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}

	logger.Info("shutdown complete")
	return nil
}

// buildSinks returns the file sink plus the stream sinks enabled in cfg,
// and the sinks that must be closed on exit.
func buildSinks(cfg *config.Config, logger *slog.Logger) ([]pipeline.Sink, []io.Closer) {
	sinks := []pipeline.Sink{file.NewSink(cfg.DataDir, len(cfg.Spots) > 1, logger)}
	var closers []io.Closer

	if len(cfg.KafkaBrokers) > 0 {
		w := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		sinks = append(sinks, w)
		closers = append(closers, w)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	if cfg.RedisAddr != "" {
		s := redisadapter.NewStreamSink(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisStream, logger)
		sinks = append(sinks, s)
		closers = append(closers, s)
		logger.Info("redis sink enabled", "addr", cfg.RedisAddr, "stream", cfg.RedisStream)
	}
	return sinks, closers
}

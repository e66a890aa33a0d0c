package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/animals-etl-client/pkg/catalog"
	"github.com/Sternrassler/animals-etl-client/pkg/client"
	"github.com/Sternrassler/animals-etl-client/pkg/config"
	"github.com/Sternrassler/animals-etl-client/pkg/loader"
	"github.com/Sternrassler/animals-etl-client/pkg/logging"
)

func main() {
	// .env is optional; a real environment variable always wins.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to YAML config file")
	baseURL := flag.String("base-url", "", "Catalog service base URL")
	concurrency := flag.Int("concurrency", 0, "Max in-flight detail fetches")
	batchSize := flag.Int("batch-size", 0, "Records per home POST, at most 100")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	logPretty := flag.Bool("log-pretty", false, "Human-readable console output")
	metricsAddr := flag.String("metrics-addr", "", "Listen address for /metrics and /health, empty disables")
	flag.Parse()

	cfg := config.Load(*configPath)
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base-url":
			cfg.Service.BaseURL = *baseURL
		case "concurrency":
			cfg.Pipeline.Concurrency = *concurrency
		case "batch-size":
			cfg.Pipeline.BatchSize = *batchSize
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "log-pretty":
			cfg.Logging.Pretty = *logPretty
		case "metrics-addr":
			cfg.Metrics.Addr = *metricsAddr
		}
	})

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Pretty,
	})
	logger := logging.NewLogger("main")

	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr, logger)
	}

	clientCfg := client.DefaultConfig(cfg.Service.BaseURL)
	clientCfg.MaxAttempts = cfg.Service.MaxAttempts
	clientCfg.ConnectTimeout = cfg.Service.ConnectTimeout()
	clientCfg.RequestTimeout = cfg.Service.RequestTimeout()
	httpClient, err := client.New(clientCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid client configuration")
	}

	api, err := catalog.NewAPI(httpClient, cfg.Service.Endpoints)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid endpoint configuration")
	}

	etl, err := loader.New(api, loader.Config{
		Concurrency: cfg.Pipeline.Concurrency,
		GroupSize:   cfg.Pipeline.GroupSize,
		BatchSize:   cfg.Pipeline.BatchSize,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid pipeline configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("base_url", cfg.Service.BaseURL).
		Int("concurrency", cfg.Pipeline.Concurrency).
		Int("batch_size", cfg.Pipeline.BatchSize).
		Msg("Starting transfer")

	stats, err := etl.Run(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Transfer failed")
	}

	logger.Info().
		Int("listed", stats.RecordsListed).
		Int("posted", stats.RecordsPosted).
		Int("batches", stats.Batches).
		Dur("duration", stats.Duration).
		Msg("Transfer complete")
}

func serveMetrics(addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)

	logger.Info().Str("addr", addr).Msg("Metrics endpoint listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("Metrics endpoint failed")
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

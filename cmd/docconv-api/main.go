// Package main provides the conversion API server entrypoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spherical/docconv/cmd/docconv-api/handlers"
	"github.com/spherical/docconv/internal/cache"
	"github.com/spherical/docconv/internal/config"
	"github.com/spherical/docconv/internal/convert"
	"github.com/spherical/docconv/internal/encode"
	"github.com/spherical/docconv/internal/external"
	"github.com/spherical/docconv/internal/observability"
	"github.com/spherical/docconv/internal/pdf"
	"github.com/spherical/docconv/internal/raster"
	"github.com/spherical/docconv/internal/worker"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Int("workers", cfg.Workers.PoolSize).
		Str("converter", cfg.Converter.Backend).
		Str("cache", cfg.Cache.Driver).
		Msg("Starting conversion API")

	mode, err := raster.ParsePreprocessMode(cfg.Raster.Preprocess)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid preprocess mode")
	}

	readyChecks := map[string]handlers.Pinger{}
	resultCache, err := cache.New(cfg.Cache)
	if err != nil {
		logger.Warn().Err(err).Msg("Cache unavailable, falling back to memory")
		resultCache = cache.NewMemoryClient(cfg.Cache.MaxEntries)
	}
	if p, ok := resultCache.(handlers.Pinger); ok {
		readyChecks["cache"] = p
	}

	service := convert.NewService(convert.Options{
		Renderer:   pdf.NewFitzRenderer(cfg.Raster.DPI),
		Codec:      encode.NewStdCodec(),
		Converter:  external.NewDocumentConverter(cfg.Converter, nil, nil, logger),
		Archives:   external.NewArchiveExtractor(cfg.Archive, nil, logger),
		Cache:      resultCache,
		CacheTTL:   cfg.Cache.TTL,
		Preprocess: mode,
		Logger:     logger,
	})

	pool := worker.NewPool(cfg.Workers.PoolSize, cfg.Workers.QueueSize, logger)

	router := NewRouter(logger, &AppConfig{
		ServiceName:    cfg.Observability.ServiceName,
		RequestTimeout: cfg.Server.RequestTimeout,
		Text: handlers.TextDefaults{
			WordCountMin: cfg.Text.WordCountMin,
			MaxPages:     cfg.Text.MaxPages,
		},
		ReadyChecks: readyChecks,
	}, service, pool)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Server error")
		}
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	if err := pool.Close(); err != nil {
		logger.Error().Err(err).Msg("Worker pool shutdown failed")
	}
	if err := resultCache.Close(); err != nil {
		logger.Warn().Err(err).Msg("Cache close failed")
	}

	logger.Info().Msg("Server stopped")
}

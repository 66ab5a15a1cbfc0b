package commands

import (
	"fmt"
	"os"

	"github.com/spherical/docconv/internal/cache"
	"github.com/spherical/docconv/internal/config"
	"github.com/spherical/docconv/internal/convert"
	"github.com/spherical/docconv/internal/encode"
	"github.com/spherical/docconv/internal/external"
	"github.com/spherical/docconv/internal/observability"
	"github.com/spherical/docconv/internal/pdf"
	"github.com/spherical/docconv/internal/raster"
)

// env bundles what a command needs.
type env struct {
	cfg     *config.Config
	logger  *observability.Logger
	service *convert.Service
	close   func()
}

func setup() (*env, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      "console",
		Output:      os.Stderr,
		ServiceName: "docconv",
	})

	mode, err := raster.ParsePreprocessMode(cfg.Raster.Preprocess)
	if err != nil {
		return nil, err
	}

	// Counts are cached for the life of the process only.
	mem := cache.NewMemoryClient(cfg.Cache.MaxEntries)

	service := convert.NewService(convert.Options{
		Renderer:   pdf.NewFitzRenderer(cfg.Raster.DPI),
		Codec:      encode.NewStdCodec(),
		Converter:  external.NewDocumentConverter(cfg.Converter, nil, nil, logger),
		Archives:   external.NewArchiveExtractor(cfg.Archive, nil, logger),
		Cache:      mem,
		CacheTTL:   cfg.Cache.TTL,
		Preprocess: mode,
		Logger:     logger,
	})

	return &env{
		cfg:     cfg,
		logger:  logger,
		service: service,
		close:   func() { _ = mem.Close() },
	}, nil
}

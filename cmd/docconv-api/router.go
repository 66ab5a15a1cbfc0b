package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/spherical/docconv/cmd/docconv-api/handlers"
	"github.com/spherical/docconv/cmd/docconv-api/middleware"
	"github.com/spherical/docconv/internal/observability"
	"github.com/spherical/docconv/internal/worker"
)

// AppConfig holds what the router needs beyond its collaborators.
type AppConfig struct {
	ServiceName    string
	RequestTimeout time.Duration
	AllowedOrigins []string
	Text           handlers.TextDefaults
	ReadyChecks    map[string]handlers.Pinger
}

// NewRouter creates the API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg *AppConfig, service handlers.Converter, pool *worker.Pool) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestContext)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(cfg.AllowedOrigins))
	}
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}

	health := handlers.NewHealthHandler(cfg.ServiceName, pool, cfg.ReadyChecks)
	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)

	h := handlers.NewConvertHandler(logger, service, pool, cfg.Text)
	r.Post("/convert-file-format", h.ConvertFormat)
	r.Post("/extract-pdf-text-speed", h.ExtractText)
	r.Post("/pdf-to-image", h.PdfToImage)
	r.Post("/pdf-to-pngs", h.PdfToPngs)
	r.Post("/compress-image", h.CompressImage)
	r.Post("/pdf-image-count", h.ImageCount)
	r.Post("/extract-archive", h.ExtractArchive)

	return r
}

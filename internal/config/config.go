// Package config provides unified configuration loading for the conversion service.
// Supports YAML files, .env files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Converter backends for office formats.
const (
	BackendSoffice    = "soffice"
	BackendUnoconvert = "unoconvert"
)

// Archive tools.
const (
	ArchiveToolPatool = "patool"
	ArchiveTool7z     = "7z"
)

// Config holds all configuration for the conversion service.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Workers       WorkersConfig       `yaml:"workers"`
	Raster        RasterConfig        `yaml:"raster"`
	Text          TextConfig          `yaml:"text"`
	Converter     ConverterConfig     `yaml:"converter"`
	Archive       ArchiveConfig       `yaml:"archive"`
	Cache         CacheConfig         `yaml:"cache"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// WorkersConfig sizes the operation worker pool.
type WorkersConfig struct {
	PoolSize  int `yaml:"pool_size"`
	QueueSize int `yaml:"queue_size"`
}

// RasterConfig holds page rasterization settings.
type RasterConfig struct {
	DPI        float64 `yaml:"dpi"`
	Preprocess string  `yaml:"preprocess"` // none, grayscale or grayscale_threshold
}

// TextConfig holds plain-text extraction defaults.
type TextConfig struct {
	WordCountMin int `yaml:"word_count_min"`
	MaxPages     int `yaml:"max_pages"`
}

// ConverterConfig selects and locates the external document converters.
type ConverterConfig struct {
	Backend        string        `yaml:"backend"` // soffice or unoconvert
	SofficePath    string        `yaml:"soffice_path"`
	UnoconvertPath string        `yaml:"unoconvert_path"`
	PandocPath     string        `yaml:"pandoc_path"`
	ChromePath     string        `yaml:"chrome_path"`
	Timeout        time.Duration `yaml:"timeout"`
}

// ArchiveConfig selects the archive extraction tool.
type ArchiveConfig struct {
	Tool    string        `yaml:"tool"` // patool or 7z
	Path    string        `yaml:"path"`
	Locale  string        `yaml:"locale"`
	Timeout time.Duration `yaml:"timeout"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Prefix   string `yaml:"prefix"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file and applies environment overrides.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}

		cfg.resolveToolPaths(path)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             9999,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     5 * time.Minute,
			IdleTimeout:      120 * time.Second,
			RequestTimeout:   5 * time.Minute,
			GracefulShutdown: 10 * time.Second,
		},
		Workers: WorkersConfig{
			PoolSize:  100,
			QueueSize: 100,
		},
		Raster: RasterConfig{
			DPI:        72,
			Preprocess: "grayscale_threshold",
		},
		Text: TextConfig{
			WordCountMin: 80,
			MaxPages:     8,
		},
		Converter: ConverterConfig{
			Backend:        BackendSoffice,
			SofficePath:    "soffice",
			UnoconvertPath: "unoconvert",
			PandocPath:     "pandoc",
			ChromePath:     "chromium",
			Timeout:        60 * time.Second,
		},
		Archive: ArchiveConfig{
			Tool:    ArchiveToolPatool,
			Path:    "patool",
			Locale:  "zh_CN.GBK",
			Timeout: 5 * time.Minute,
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        10 * time.Minute,
			MaxEntries: 10000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
				Prefix:   "docconv:",
			},
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			ServiceName: "docconv",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Workers.PoolSize < 1 {
		return fmt.Errorf("workers.pool_size must be positive, got %d", c.Workers.PoolSize)
	}

	if c.Workers.QueueSize < 0 {
		return fmt.Errorf("workers.queue_size must not be negative, got %d", c.Workers.QueueSize)
	}

	if c.Raster.DPI <= 0 {
		return fmt.Errorf("raster.dpi must be positive, got %v", c.Raster.DPI)
	}

	switch c.Raster.Preprocess {
	case "none", "grayscale", "grayscale_threshold":
	default:
		return fmt.Errorf("invalid raster.preprocess: %s", c.Raster.Preprocess)
	}

	if c.Converter.Backend != BackendSoffice && c.Converter.Backend != BackendUnoconvert {
		return fmt.Errorf("invalid converter backend: %s", c.Converter.Backend)
	}

	if c.Archive.Tool != ArchiveToolPatool && c.Archive.Tool != ArchiveTool7z {
		return fmt.Errorf("invalid archive tool: %s", c.Archive.Tool)
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	return nil
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	// FPS_PORT is the historical name; SERVER_PORT wins when both are set.
	for _, key := range []string{"FPS_PORT", "SERVER_PORT"} {
		if v := os.Getenv(key); v != "" {
			if port, err := strconv.Atoi(v); err == nil {
				cfg.Server.Port = port
			}
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if os.Getenv("USE_UNO") == "true" {
		cfg.Converter.Backend = BackendUnoconvert
	}

	if v := os.Getenv("CONVERTER_BACKEND"); v != "" {
		cfg.Converter.Backend = v
	}

	if v := os.Getenv("ARCHIVE_LOCALE"); v != "" {
		cfg.Archive.Locale = v
	}

	if v := os.Getenv("WORKER_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers.PoolSize = n
		}
	}

	if v := os.Getenv("RASTER_DPI"); v != "" {
		if dpi, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Raster.DPI = dpi
		}
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}

// resolveToolPaths makes relative tool paths such as ./bin/soffice relative to
// the config file. Bare command names are left for PATH lookup.
func (c *Config) resolveToolPaths(configPath string) {
	for _, p := range []*string{
		&c.Converter.SofficePath,
		&c.Converter.UnoconvertPath,
		&c.Converter.PandocPath,
		&c.Converter.ChromePath,
		&c.Archive.Path,
	} {
		if strings.ContainsRune(*p, filepath.Separator) {
			*p = ResolveRelativePath(configPath, *p)
		}
	}
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	configDir := filepath.Dir(configPath)
	return filepath.Join(configDir, targetPath)
}

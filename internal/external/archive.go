package external

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spherical/docconv/internal/config"
	"github.com/spherical/docconv/internal/domain"
	"github.com/spherical/docconv/internal/observability"
)

// ArchiveExtractor unpacks archives with patool or 7z.
type ArchiveExtractor struct {
	cfg    config.ArchiveConfig
	runner Runner
	logger *observability.Logger
}

// NewArchiveExtractor creates an extractor. A nil runner uses ExecRunner.
func NewArchiveExtractor(cfg config.ArchiveConfig, runner Runner, logger *observability.Logger) *ArchiveExtractor {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = observability.Nop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.Path == "" {
		cfg.Path = cfg.Tool
	}
	return &ArchiveExtractor{cfg: cfg, runner: runner, logger: logger}
}

// Extract creates outputDir and unpacks inputPath into it. The locale is set
// on the child process only.
func (a *ArchiveExtractor) Extract(ctx context.Context, inputPath, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return domain.IOError(fmt.Sprintf("cannot create output directory: %s", outputDir), err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	args := a.args(inputPath, outputDir)
	out, err := a.runner.Run(ctx, a.cfg.Path, args, a.env())
	if err != nil {
		return domain.ConversionError(
			fmt.Sprintf("failed to extract %s: %s", inputPath, strings.TrimSpace(string(out))), err)
	}

	a.logger.Info().Str("input", inputPath).Str("output_dir", outputDir).Msg("Extracted archive")
	return nil
}

func (a *ArchiveExtractor) args(inputPath, outputDir string) []string {
	if a.cfg.Tool == config.ArchiveTool7z {
		return []string{"x", "-y", "-o" + outputDir, inputPath}
	}
	return []string{"--non-interactive", "extract", "--outdir", outputDir, inputPath}
}

func (a *ArchiveExtractor) env() []string {
	if a.cfg.Locale == "" {
		return nil
	}
	return []string{"LANG=" + a.cfg.Locale, "LC_ALL=" + a.cfg.Locale}
}

package external

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spherical/docconv/internal/config"
	"github.com/spherical/docconv/internal/domain"
	"github.com/spherical/docconv/internal/observability"
)

// DocumentConverter converts between document formats with pandoc,
// Chromium, soffice or unoconvert.
type DocumentConverter struct {
	cfg     config.ConverterConfig
	runner  Runner
	printer HTMLPrinter
	logger  *observability.Logger
}

// NewDocumentConverter creates a converter. A nil runner uses ExecRunner and a
// nil printer uses ChromePrinter at cfg.ChromePath.
func NewDocumentConverter(cfg config.ConverterConfig, runner Runner, printer HTMLPrinter, logger *observability.Logger) *DocumentConverter {
	if runner == nil {
		runner = ExecRunner{}
	}
	if printer == nil {
		printer = NewChromePrinter(cfg.ChromePath)
	}
	if logger == nil {
		logger = observability.Nop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &DocumentConverter{cfg: cfg, runner: runner, printer: printer, logger: logger}
}

// Convert writes inputPath as outputPath, choosing the tool from the
// extensions. It does nothing when outputPath already exists.
func (c *DocumentConverter) Convert(ctx context.Context, inputPath, outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		c.logger.Debug().Str("output", outputPath).Msg("Output exists, skipping conversion")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	outExt := filepath.Ext(outputPath)
	isHTML := strings.HasSuffix(inputPath, ".html")

	switch {
	case outExt == ".md" || (isHTML && outExt == ".docx"):
		return c.run(ctx, c.cfg.PandocPath, []string{inputPath, "-o", outputPath})

	case isHTML && outExt == ".pdf":
		if err := c.printer.PrintPDF(ctx, inputPath, outputPath); err != nil {
			return domain.ConversionError(fmt.Sprintf("failed to print %s", inputPath), err)
		}
		return nil
	}

	format := strings.TrimPrefix(outExt, ".")
	if format == "" {
		return domain.ValidationError(fmt.Sprintf("output path has no extension: %s", outputPath), nil)
	}

	if c.cfg.Backend == config.BackendUnoconvert {
		return c.run(ctx, c.cfg.UnoconvertPath, []string{"--convert-to", format, inputPath, outputPath})
	}

	outDir := filepath.Dir(outputPath)
	if err := c.run(ctx, c.cfg.SofficePath, []string{"--headless", "--convert-to", format, inputPath, "--outdir", outDir}); err != nil {
		return err
	}

	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	converted := filepath.Join(outDir, stem+outExt)
	if converted != outputPath {
		if err := os.Rename(converted, outputPath); err != nil {
			return domain.IOError(fmt.Sprintf("failed to move %s to %s", converted, outputPath), err)
		}
	}
	return nil
}

func (c *DocumentConverter) run(ctx context.Context, name string, args []string) error {
	start := time.Now()
	out, err := c.runner.Run(ctx, name, args, nil)
	if err != nil {
		return domain.ConversionError(
			fmt.Sprintf("%s failed: %s", name, strings.TrimSpace(string(out))), err)
	}
	c.logger.Debug().
		Str("tool", name).
		Strs("args", args).
		Dur("duration", time.Since(start)).
		Msg("External conversion finished")
	return nil
}

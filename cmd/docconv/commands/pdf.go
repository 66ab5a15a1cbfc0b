package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical/docconv/cmd/docconv/ui"
	"github.com/spherical/docconv/internal/convert"
	"github.com/spherical/docconv/internal/raster"
	"github.com/spherical/docconv/internal/worker"
)

var (
	imageOutputDir  string
	imageMaxPages   int
	imageTargetSize int64
	imagePreprocess string

	pngsOutputDir string
	pngsJobs      int

	textOutputDir string
	textMinChars  int
	textMaxPages  int
)

var pdfToImageCmd = &cobra.Command{
	Use:   "pdf-to-image <pdf>",
	Short: "Stack the first pages of a PDF into one size-bounded image",
	Args:  cobra.ExactArgs(1),
	RunE:  runPdfToImage,
}

var pdfToPngsCmd = &cobra.Command{
	Use:   "pdf-to-pngs <pdf>...",
	Short: "Export every page of one or more PDFs as PNG",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPdfToPngs,
}

var imageCountCmd = &cobra.Command{
	Use:   "image-count <pdf>",
	Short: "Count embedded raster images over all pages",
	Args:  cobra.ExactArgs(1),
	RunE:  runImageCount,
}

var extractTextCmd = &cobra.Command{
	Use:   "extract-text <pdf>",
	Short: "Extract the text of the first pages into cv.txt",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtractText,
}

func init() {
	pdfToImageCmd.Flags().StringVarP(&imageOutputDir, "output-dir", "o", ".", "output directory")
	pdfToImageCmd.Flags().IntVarP(&imageMaxPages, "max-pages", "m", 8, "maximum pages to stack")
	pdfToImageCmd.Flags().Int64VarP(&imageTargetSize, "target-size", "t", 2<<20, "byte budget for the image")
	pdfToImageCmd.Flags().StringVar(&imagePreprocess, "preprocess", "", "none, grayscale or grayscale_threshold (default from config)")

	pdfToPngsCmd.Flags().StringVarP(&pngsOutputDir, "output-dir", "o", ".", "output directory")
	pdfToPngsCmd.Flags().IntVarP(&pngsJobs, "jobs", "j", 4, "documents processed in parallel")

	extractTextCmd.Flags().StringVarP(&textOutputDir, "output-dir", "o", ".", "output directory")
	extractTextCmd.Flags().IntVar(&textMinChars, "min-chars", -1, "minimum text length (default from config)")
	extractTextCmd.Flags().IntVar(&textMaxPages, "max-pages", -1, "pages to read (default from config)")

	rootCmd.AddCommand(pdfToImageCmd, pdfToPngsCmd, imageCountCmd, extractTextCmd)
}

func runPdfToImage(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	var mode raster.PreprocessMode
	if imagePreprocess != "" {
		if mode, err = raster.ParsePreprocessMode(imagePreprocess); err != nil {
			return err
		}
	}

	spin := ui.NewSpinner("Rendering " + filepath.Base(args[0]))
	spin.Start()
	start := time.Now()
	res, err := e.service.PdfToImage(convert.ImageRequest{
		PDFPath:    args[0],
		OutputDir:  imageOutputDir,
		MaxPages:   imageMaxPages,
		TargetSize: imageTargetSize,
		Preprocess: mode,
	})
	spin.Stop()
	if err != nil {
		return err
	}

	if !res.Met {
		ui.Warning("No encoding fits %s after %d attempts", ui.FormatBytes(imageTargetSize), len(res.Attempts))
		return nil
	}

	ui.Success("Wrote %s", res.Path)
	ui.KeyValue("format", string(res.Format))
	if res.Quality > 0 {
		ui.KeyValue("quality", strconv.Itoa(res.Quality))
	}
	ui.KeyValue("size", ui.FormatBytes(int64(res.Size)))
	ui.KeyValue("time", ui.FormatDuration(time.Since(start)))
	return nil
}

func runPdfToPngs(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	pool := worker.NewPool(pngsJobs, len(args), e.logger)
	defer pool.Close()

	if ui.Verbose() {
		ui.Section(fmt.Sprintf("Exporting %d documents to %s", len(args), pngsOutputDir))
	}

	bar := ui.NewProgressBar(int64(len(args)), "Exporting")
	failed, err := exportAll(cmd.Context(), pool, args, func(path string) error {
		defer bar.Add(1)

		pages, err := e.service.PdfToPngs(path, pngsOutputDir, nil)
		if err != nil {
			ui.Error("%s: %v", path, err)
			return err
		}
		if ui.Verbose() {
			ui.Step("%s: %d pages", filepath.Base(path), len(pages))
		}
		return nil
	})
	if err != nil {
		return err
	}
	bar.Finish()

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(args))
	}
	ui.Success("Exported %d documents to %s", len(args), pngsOutputDir)
	return nil
}

// exportAll runs export for every path on pool and returns the number of
// failures once all have finished. It returns ctx.Err() as soon as ctx ends;
// queued paths are then skipped by the pool and running ones finish on their own.
func exportAll(ctx context.Context, pool *worker.Pool, paths []string, export func(path string) error) (int, error) {
	results := make(chan error, len(paths))
	for _, path := range paths {
		if err := pool.Submit(ctx, func(context.Context) { results <- export(path) }); err != nil {
			return 0, err
		}
	}

	failed := 0
	for range paths {
		select {
		case err := <-results:
			if err != nil {
				failed++
			}
		case <-ctx.Done():
			return failed, ctx.Err()
		}
	}
	return failed, nil
}

func runImageCount(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	n, err := e.service.CountImages(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), n)
	return nil
}

func runExtractText(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	minChars, maxPages := e.cfg.Text.WordCountMin, e.cfg.Text.MaxPages
	if textMinChars >= 0 {
		minChars = textMinChars
	}
	if textMaxPages >= 0 {
		maxPages = textMaxPages
	}

	out, err := e.service.ExtractText(args[0], textOutputDir, minChars, maxPages)
	if err != nil {
		return err
	}
	if out == "" {
		ui.Warning("Less than %d characters of text in %s", minChars, args[0])
		return nil
	}
	ui.Success("Wrote %s", out)
	return nil
}

// Package convert orchestrates the document conversion operations.
package convert

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spherical/docconv/internal/cache"
	"github.com/spherical/docconv/internal/domain"
	"github.com/spherical/docconv/internal/encode"
	"github.com/spherical/docconv/internal/observability"
	"github.com/spherical/docconv/internal/pdf"
	"github.com/spherical/docconv/internal/raster"
)

const imageCountKind = "imgcount"

// FormatConverter converts a document to another format.
type FormatConverter interface {
	Convert(ctx context.Context, inputPath, outputPath string) error
}

// ArchiveExtractor unpacks an archive into a directory.
type ArchiveExtractor interface {
	Extract(ctx context.Context, inputPath, outputDir string) error
}

// ProgressFunc is called after each exported page.
type ProgressFunc func(done, total int)

// Options wires a Service. Renderer and Codec are required.
type Options struct {
	Renderer   domain.Renderer
	Codec      domain.Codec
	Converter  FormatConverter
	Archives   ArchiveExtractor
	Cache      cache.Client
	CacheTTL   time.Duration
	Preprocess raster.PreprocessMode
	Logger     *observability.Logger
}

// Service runs one conversion operation per call. Calls share no state
// besides the cache, so they may run concurrently on disjoint output paths.
type Service struct {
	codec      domain.Codec
	rasterizer *raster.Rasterizer
	counter    *raster.ImageCounter
	encoder    *encode.Encoder
	compressor *encode.Compressor
	text       *pdf.TextExtractor
	converter  FormatConverter
	archives   ArchiveExtractor
	cache      cache.Client
	cacheTTL   time.Duration
	preprocess raster.PreprocessMode
	validator  *pdf.Validator
	logger     *observability.Logger
}

// NewService creates a conversion service.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = observability.Nop()
	}
	if opts.Preprocess == "" {
		opts.Preprocess = raster.PreprocessThreshold
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}

	validator := pdf.NewValidator()
	validator.OnLargeFile = func(path string, size int64) {
		logger.Warn().Str("path", path).Int64("size", size).Msg("Large input file")
	}

	return &Service{
		codec:      opts.Codec,
		rasterizer: raster.NewRasterizer(opts.Renderer, logger),
		counter:    raster.NewImageCounter(opts.Renderer, logger),
		encoder:    encode.NewEncoder(opts.Codec, logger),
		compressor: encode.NewCompressor(opts.Codec, logger),
		text:       pdf.NewTextExtractor(logger),
		converter:  opts.Converter,
		archives:   opts.Archives,
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		preprocess: opts.Preprocess,
		validator:  validator,
		logger:     logger,
	}
}

// ImageRequest describes a composite-image operation.
type ImageRequest struct {
	PDFPath    string
	OutputDir  string
	MaxPages   int
	TargetSize int64
	// Preprocess overrides the service default when set.
	Preprocess raster.PreprocessMode
}

// PdfToImage renders up to MaxPages pages, preprocesses each, stacks them and
// writes the first encoding that fits TargetSize as <base>.png or <base>.jpg.
// A Result with an empty Path means no encoding fit; that is not an error.
func (s *Service) PdfToImage(req ImageRequest) (*encode.Result, error) {
	if err := s.validator.ValidateDocumentPath(req.PDFPath); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateOutputDir(req.OutputDir); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateMaxPages(req.MaxPages); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateTargetSize(req.TargetSize); err != nil {
		return nil, err
	}

	mode := s.preprocess
	if req.Preprocess != "" {
		mode = req.Preprocess
	}

	start := time.Now()
	var pages []image.Image
	_, err := s.rasterizer.EachPage(req.PDFPath, req.MaxPages, func(_, _ int, img image.Image) error {
		pages = append(pages, raster.Preprocess(img, mode))
		return nil
	})
	if err != nil {
		return nil, err
	}

	composite, err := raster.Stitch(pages)
	if err != nil {
		return nil, err
	}
	pages = nil

	base := filepath.Join(req.OutputDir, baseName(req.PDFPath))
	res, err := s.encoder.Encode(composite.Image,
		req.TargetSize,
		base+domain.FormatPNG.Ext(),
		base+domain.FormatJPEG.Ext(),
	)
	if err != nil {
		return nil, err
	}

	log := s.logger.Info()
	if !res.Met {
		log = s.logger.Warn()
	}
	log.Str("input", req.PDFPath).
		Str("output", res.Path).
		Int("pages", len(composite.Offsets)).
		Str("preprocess", string(mode)).
		Int64("target_size", req.TargetSize).
		Bool("met", res.Met).
		Int("size", res.Size).
		Int("attempts", len(res.Attempts)).
		Dur("duration", time.Since(start)).
		Msg("pdf_to_image finished")

	return res, nil
}

// PdfToPngs writes every page as <base>_<n>.png, unprocessed and losslessly.
// progress may be nil.
func (s *Service) PdfToPngs(pdfPath, outputDir string, progress ProgressFunc) ([]domain.PageImage, error) {
	if err := s.validator.ValidateDocumentPath(pdfPath); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateOutputDir(outputDir); err != nil {
		return nil, err
	}

	base := baseName(pdfPath)
	var images []domain.PageImage
	_, err := s.rasterizer.EachPage(pdfPath, 0, func(n, total int, img image.Image) error {
		data, err := s.codec.EncodePNG(img, 0)
		if err != nil {
			return err
		}

		out := filepath.Join(outputDir, fmt.Sprintf("%s_%d.png", base, n))
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return domain.IOError(fmt.Sprintf("failed to write %s", out), err)
		}

		b := img.Bounds()
		images = append(images, domain.PageImage{
			PageNumber: n,
			ImagePath:  out,
			Width:      b.Dx(),
			Height:     b.Dy(),
		})
		if progress != nil {
			progress(n, total)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("input", pdfPath).
		Str("output_dir", outputDir).
		Int("pages", len(images)).
		Msg("pdf_to_pngs finished")

	return images, nil
}

// CompressImage recompresses an image as grayscale JPEG below targetSize,
// writing the lowest quality when nothing fits.
func (s *Service) CompressImage(inputPath, outputPath string, targetSize int64) (*encode.Result, error) {
	if err := s.validator.ValidateDocumentPath(inputPath); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateTargetSize(targetSize); err != nil {
		return nil, err
	}
	if dir := filepath.Dir(outputPath); dir != "" {
		if err := s.validator.ValidateOutputDir(dir); err != nil {
			return nil, err
		}
	}

	img, format, err := encode.DecodeFile(inputPath)
	if err != nil {
		return nil, err
	}

	res, err := s.compressor.Compress(img, targetSize, outputPath)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("input", inputPath).
		Str("input_format", format).
		Str("output", outputPath).
		Int("quality", res.Quality).
		Int("size", res.Size).
		Bool("met", res.Met).
		Msg("compress_image finished")

	return res, nil
}

// CountImages returns the number of embedded image placements over all pages.
// Results are cached per file path, size and modification time.
func (s *Service) CountImages(ctx context.Context, pdfPath string) (int, error) {
	if err := s.validator.ValidateDocumentPath(pdfPath); err != nil {
		return 0, err
	}

	key := s.imageCountKey(pdfPath)
	if n, ok := s.cachedCount(ctx, key); ok {
		s.logger.Debug().Str("input", pdfPath).Int("count", n).Msg("Image count cache hit")
		return n, nil
	}

	n, err := s.counter.Count(pdfPath, 0)
	if err != nil {
		return 0, err
	}

	if s.cache != nil && key != "" {
		if err := s.cache.Set(ctx, key, []byte(strconv.Itoa(n)), s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache image count")
		}
	}

	s.logger.Info().Str("input", pdfPath).Int("count", n).Msg("pdf_image_count finished")
	return n, nil
}

func (s *Service) imageCountKey(path string) string {
	if s.cache == nil {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	info, err := os.Stat(abs)
	if err != nil {
		return ""
	}
	return cache.FileKey(imageCountKind, abs, info.Size(), info.ModTime())
}

func (s *Service) cachedCount(ctx context.Context, key string) (int, bool) {
	if s.cache == nil || key == "" {
		return 0, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn().Err(err).Str("key", key).Msg("Image count cache read failed")
		}
		return 0, false
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, false
	}
	return n, true
}

// ExtractText writes the text of the first maxPages pages to outputDir/cv.txt.
// It returns "" when the document has fewer than minChars characters of text.
func (s *Service) ExtractText(pdfPath, outputDir string, minChars, maxPages int) (string, error) {
	if err := s.validator.ValidatePDFPath(pdfPath); err != nil {
		return "", err
	}
	if err := s.validator.ValidateOutputDir(outputDir); err != nil {
		return "", err
	}
	if err := s.validator.ValidatePageLimit(maxPages); err != nil {
		return "", err
	}

	out, err := s.text.Extract(pdfPath, outputDir, minChars, maxPages)
	if err != nil {
		return "", err
	}

	s.logger.Info().Str("input", pdfPath).Str("output", out).Msg("extract_pdf_text finished")
	return out, nil
}

// ConvertFormat converts inputPath to the format implied by outputPath.
func (s *Service) ConvertFormat(ctx context.Context, inputPath, outputPath string) error {
	if s.converter == nil {
		return domain.ConfigError("format converter not configured", nil)
	}
	if err := s.validator.ValidateDocumentPath(inputPath); err != nil {
		return err
	}
	if strings.TrimSpace(outputPath) == "" {
		return domain.ValidationError("output path cannot be empty", nil)
	}

	if err := s.converter.Convert(ctx, inputPath, outputPath); err != nil {
		return err
	}

	s.logger.Info().Str("input", inputPath).Str("output", outputPath).Msg("convert_file_format finished")
	return nil
}

// ExtractArchive unpacks inputPath into outputDir.
func (s *Service) ExtractArchive(ctx context.Context, inputPath, outputDir string) error {
	if s.archives == nil {
		return domain.ConfigError("archive extractor not configured", nil)
	}
	if err := s.validator.ValidateDocumentPath(inputPath); err != nil {
		return err
	}
	if strings.TrimSpace(outputDir) == "" {
		return domain.ValidationError("output directory cannot be empty", nil)
	}

	return s.archives.Extract(ctx, inputPath, outputDir)
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

package handlers

import (
	"context"
	"net/http"

	"github.com/spherical/docconv/internal/convert"
	"github.com/spherical/docconv/internal/domain"
	"github.com/spherical/docconv/internal/encode"
	"github.com/spherical/docconv/internal/observability"
	"github.com/spherical/docconv/internal/raster"
	"github.com/spherical/docconv/internal/worker"
)

// Converter is the operation surface served over HTTP.
type Converter interface {
	PdfToImage(req convert.ImageRequest) (*encode.Result, error)
	PdfToPngs(pdfPath, outputDir string, progress convert.ProgressFunc) ([]domain.PageImage, error)
	CompressImage(inputPath, outputPath string, targetSize int64) (*encode.Result, error)
	CountImages(ctx context.Context, pdfPath string) (int, error)
	ExtractText(pdfPath, outputDir string, minChars, maxPages int) (string, error)
	ConvertFormat(ctx context.Context, inputPath, outputPath string) error
	ExtractArchive(ctx context.Context, inputPath, outputDir string) error
}

// TextDefaults fills omitted fields of text extraction requests.
type TextDefaults struct {
	WordCountMin int
	MaxPages     int
}

// ConvertHandler runs conversion operations on a worker pool.
type ConvertHandler struct {
	logger       *observability.Logger
	service      Converter
	pool         *worker.Pool
	textDefaults TextDefaults
}

// NewConvertHandler creates a new conversion handler.
func NewConvertHandler(logger *observability.Logger, service Converter, pool *worker.Pool, text TextDefaults) *ConvertHandler {
	return &ConvertHandler{
		logger:       logger,
		service:      service,
		pool:         pool,
		textDefaults: text,
	}
}

// ConvertFormatRequestDTO is the body of POST /convert-file-format.
type ConvertFormatRequestDTO struct {
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`
}

// ExtractTextRequestDTO is the body of POST /extract-pdf-text-speed.
type ExtractTextRequestDTO struct {
	PDFPath      string `json:"pdf_path"`
	OutputDir    string `json:"output_dir"`
	WordCountMin *int   `json:"word_count_min,omitempty"`
	MaxPage      *int   `json:"max_page,omitempty"`
}

// PdfToImageRequestDTO is the body of POST /pdf-to-image.
type PdfToImageRequestDTO struct {
	PDFPath    string `json:"pdf_path"`
	OutputDir  string `json:"output_dir"`
	MaxPage    int    `json:"max_page"`
	TargetSize int64  `json:"target_size"`
	Preprocess string `json:"preprocess,omitempty"`
}

// PdfToPngsRequestDTO is the body of POST /pdf-to-pngs.
type PdfToPngsRequestDTO struct {
	PDFPath   string `json:"pdf_path"`
	OutputDir string `json:"output_dir"`
}

// CompressImageRequestDTO is the body of POST /compress-image.
type CompressImageRequestDTO struct {
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`
	TargetSize int64  `json:"target_size"`
}

// ImageCountRequestDTO is the body of POST /pdf-image-count.
type ImageCountRequestDTO struct {
	PDFPath string `json:"pdf_path"`
}

// ExtractArchiveRequestDTO is the body of POST /extract-archive.
type ExtractArchiveRequestDTO struct {
	InputPath string `json:"input_path"`
	OutputDir string `json:"output_dir"`
}

// ConvertFormat handles POST /convert-file-format.
func (h *ConvertHandler) ConvertFormat(w http.ResponseWriter, r *http.Request) {
	var req ConvertFormatRequestDTO
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	_, err := worker.Do(r.Context(), h.pool, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.service.ConvertFormat(ctx, req.InputPath, req.OutputPath)
	})
	h.respond(w, r, "convert_file_format", nil, err)
}

// ExtractText handles POST /extract-pdf-text-speed.
func (h *ConvertHandler) ExtractText(w http.ResponseWriter, r *http.Request) {
	var req ExtractTextRequestDTO
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	minChars, maxPages := h.textDefaults.WordCountMin, h.textDefaults.MaxPages
	if req.WordCountMin != nil {
		minChars = *req.WordCountMin
	}
	if req.MaxPage != nil {
		maxPages = *req.MaxPage
	}

	path, err := worker.Do(r.Context(), h.pool, func(context.Context) (string, error) {
		return h.service.ExtractText(req.PDFPath, req.OutputDir, minChars, maxPages)
	})
	h.respond(w, r, "extract_pdf_text", path, err)
}

// PdfToImage handles POST /pdf-to-image. data is the image path, or "" when
// no encoding fits the target size.
func (h *ConvertHandler) PdfToImage(w http.ResponseWriter, r *http.Request) {
	var req PdfToImageRequestDTO
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if req.MaxPage < 1 {
		writeError(w, r, domain.ValidationError("max_page must be at least 1", nil))
		return
	}

	var mode raster.PreprocessMode
	if req.Preprocess != "" {
		m, err := raster.ParsePreprocessMode(req.Preprocess)
		if err != nil {
			writeError(w, r, domain.ValidationError(err.Error(), nil))
			return
		}
		mode = m
	}

	res, err := worker.Do(r.Context(), h.pool, func(context.Context) (*encode.Result, error) {
		return h.service.PdfToImage(convert.ImageRequest{
			PDFPath:    req.PDFPath,
			OutputDir:  req.OutputDir,
			MaxPages:   req.MaxPage,
			TargetSize: req.TargetSize,
			Preprocess: mode,
		})
	})
	if err != nil {
		h.respond(w, r, "pdf_to_image", nil, err)
		return
	}
	h.respond(w, r, "pdf_to_image", res.Path, nil)
}

// PdfToPngs handles POST /pdf-to-pngs.
func (h *ConvertHandler) PdfToPngs(w http.ResponseWriter, r *http.Request) {
	var req PdfToPngsRequestDTO
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	pages, err := worker.Do(r.Context(), h.pool, func(context.Context) ([]domain.PageImage, error) {
		return h.service.PdfToPngs(req.PDFPath, req.OutputDir, nil)
	})
	if err != nil {
		h.respond(w, r, "pdf_to_pngs", nil, err)
		return
	}

	paths := make([]string, 0, len(pages))
	for _, p := range pages {
		paths = append(paths, p.ImagePath)
	}
	h.respond(w, r, "pdf_to_pngs", paths, nil)
}

// CompressImage handles POST /compress-image.
func (h *ConvertHandler) CompressImage(w http.ResponseWriter, r *http.Request) {
	var req CompressImageRequestDTO
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	_, err := worker.Do(r.Context(), h.pool, func(context.Context) (*encode.Result, error) {
		return h.service.CompressImage(req.InputPath, req.OutputPath, req.TargetSize)
	})
	h.respond(w, r, "compress_image", nil, err)
}

// ImageCount handles POST /pdf-image-count.
func (h *ConvertHandler) ImageCount(w http.ResponseWriter, r *http.Request) {
	var req ImageCountRequestDTO
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	n, err := worker.Do(r.Context(), h.pool, func(ctx context.Context) (int, error) {
		return h.service.CountImages(ctx, req.PDFPath)
	})
	h.respond(w, r, "pdf_image_count", n, err)
}

// ExtractArchive handles POST /extract-archive.
func (h *ConvertHandler) ExtractArchive(w http.ResponseWriter, r *http.Request) {
	var req ExtractArchiveRequestDTO
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	_, err := worker.Do(r.Context(), h.pool, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.service.ExtractArchive(ctx, req.InputPath, req.OutputDir)
	})
	h.respond(w, r, "extract_archive", nil, err)
}

func (h *ConvertHandler) respond(w http.ResponseWriter, r *http.Request, op string, data any, err error) {
	if err != nil {
		evt := h.logger.WithContext(r.Context()).Warn()
		if statusFor(err) >= http.StatusInternalServerError {
			evt = h.logger.WithContext(r.Context()).Error()
		}
		evt.Err(err).Str("operation", op).Msg("Operation failed")
		writeError(w, r, err)
		return
	}
	writeSuccess(w, r, data)
}

// Package raster turns document pages into bitmaps and prepares them for encoding.
package raster

import (
	"fmt"
	"image"

	"github.com/spherical/docconv/internal/domain"
	"github.com/spherical/docconv/internal/observability"
)

// Rasterizer renders document pages through a rendering capability.
type Rasterizer struct {
	renderer domain.Renderer
	logger   *observability.Logger
}

// NewRasterizer creates a rasterizer.
func NewRasterizer(renderer domain.Renderer, logger *observability.Logger) *Rasterizer {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Rasterizer{renderer: renderer, logger: logger}
}

// PageFunc receives each rendered page. pageNumber is 1-based and rendered is
// the number of pages the walk will render.
type PageFunc func(pageNumber, rendered int, img image.Image) error

// EachPage renders min(pageCount, pageLimit) pages in order and hands each to fn.
// A pageLimit <= 0 renders every page. The document is opened once and closed
// on every return path. A render failure aborts the walk.
func (r *Rasterizer) EachPage(path string, pageLimit int, fn PageFunc) (pageCount int, err error) {
	doc, err := r.renderer.Open(path)
	if err != nil {
		if domain.IsType(err, domain.ErrorTypeDocumentOpen) {
			return 0, err
		}
		return 0, domain.DocumentOpenError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			r.logger.Warn().Err(cerr).Str("path", path).Msg("Failed to close document")
		}
	}()

	pageCount = doc.PageCount()
	n := pageCount
	if pageLimit > 0 && pageLimit < n {
		n = pageLimit
	}

	for i := 0; i < n; i++ {
		img, err := doc.RenderPage(i)
		if err != nil {
			return pageCount, domain.PageRenderError(fmt.Sprintf("failed to render page %d", i+1), err)
		}
		if err := fn(i+1, n, img); err != nil {
			return pageCount, err
		}
	}

	r.logger.Debug().
		Str("path", path).
		Int("page_count", pageCount).
		Int("rendered", n).
		Msg("Rasterized document")

	return pageCount, nil
}

// Rasterize renders up to pageLimit pages and returns them in page order.
// No partial result is returned on failure.
func (r *Rasterizer) Rasterize(path string, pageLimit int) ([]image.Image, error) {
	var pages []image.Image
	_, err := r.EachPage(path, pageLimit, func(_, _ int, img image.Image) error {
		pages = append(pages, img)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pages, nil
}

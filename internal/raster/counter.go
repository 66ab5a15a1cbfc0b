package raster

import (
	"fmt"

	"github.com/spherical/docconv/internal/domain"
	"github.com/spherical/docconv/internal/observability"
)

// ImageCounter sums the embedded raster images referenced by each page.
// An image used on several pages is counted once per page.
type ImageCounter struct {
	renderer domain.Renderer
	logger   *observability.Logger
}

// NewImageCounter creates an image counter.
func NewImageCounter(renderer domain.Renderer, logger *observability.Logger) *ImageCounter {
	if logger == nil {
		logger = observability.Nop()
	}
	return &ImageCounter{renderer: renderer, logger: logger}
}

// Count walks the first pageLimit pages, or all of them when pageLimit <= 0.
func (c *ImageCounter) Count(path string, pageLimit int) (int, error) {
	doc, err := c.renderer.Open(path)
	if err != nil {
		if domain.IsType(err, domain.ErrorTypeDocumentOpen) {
			return 0, err
		}
		return 0, domain.DocumentOpenError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			c.logger.Warn().Err(cerr).Str("path", path).Msg("Failed to close document")
		}
	}()

	n := doc.PageCount()
	if pageLimit > 0 && pageLimit < n {
		n = pageLimit
	}

	total := 0
	for i := 0; i < n; i++ {
		refs, err := doc.EmbeddedImages(i)
		if err != nil {
			return 0, domain.PageRenderError(fmt.Sprintf("failed to list images on page %d", i+1), err)
		}
		total += len(refs)
	}
	return total, nil
}

package domain

import "image"

// Renderer opens documents for rasterization. Implementations wrap an external
// page-rendering engine.
type Renderer interface {
	// Open acquires a document handle. The caller must Close it.
	Open(path string) (Document, error)
}

// Document is an open handle on a source document. Page indexes are zero-based.
type Document interface {
	// PageCount reports the total number of pages.
	PageCount() int

	// RenderPage rasterizes one page at the renderer's fixed resolution.
	RenderPage(index int) (image.Image, error)

	// EmbeddedImages lists the raster images referenced by one page.
	EmbeddedImages(index int) ([]ImageRef, error)

	// Close releases the handle.
	Close() error
}

// Codec encodes bitmaps. Sizes are the length of the returned bytes.
type Codec interface {
	// EncodePNG encodes losslessly. Quality 0 selects the default settings;
	// lower non-zero values select more aggressive compression.
	EncodePNG(img image.Image, quality int) ([]byte, error)

	// EncodeJPEG encodes with the given quality in [1,100].
	EncodeJPEG(img image.Image, quality int) ([]byte, error)
}

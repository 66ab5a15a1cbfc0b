package pdf

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"
	lpdf "github.com/ledongthuc/pdf"

	"github.com/spherical/docconv/internal/domain"
)

// DefaultDPI matches the 72 dpi pixmaps of the previous renderer.
const DefaultDPI = 72

// FitzRenderer implements domain.Renderer using go-fitz (MuPDF).
type FitzRenderer struct {
	dpi float64
}

// NewFitzRenderer creates a renderer that rasterizes at the given resolution.
func NewFitzRenderer(dpi float64) *FitzRenderer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &FitzRenderer{dpi: dpi}
}

// Open opens a document. Every format MuPDF reads is accepted for rendering;
// embedded image listing requires a PDF.
func (r *FitzRenderer) Open(path string) (domain.Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, domain.DocumentOpenError(fmt.Sprintf("failed to open %s", path), err)
	}
	return &fitzDocument{path: path, doc: doc, dpi: r.dpi}, nil
}

// fitzDocument renders through MuPDF and reads page resources through a
// lazily opened ledongthuc reader.
type fitzDocument struct {
	path string
	doc  *fitz.Document
	dpi  float64

	once    sync.Once
	file    *os.File
	reader  *lpdf.Reader
	openErr error
}

func (d *fitzDocument) PageCount() int {
	return d.doc.NumPage()
}

func (d *fitzDocument) RenderPage(index int) (image.Image, error) {
	img, err := d.doc.ImageDPI(index, d.dpi)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (d *fitzDocument) EmbeddedImages(index int) ([]domain.ImageRef, error) {
	if !strings.EqualFold(filepath.Ext(d.path), ".pdf") {
		return nil, domain.ValidationError("embedded image listing requires a PDF", nil)
	}

	d.once.Do(func() {
		d.file, d.reader, d.openErr = lpdf.Open(d.path)
	})
	if d.openErr != nil {
		return nil, domain.DocumentOpenError(fmt.Sprintf("failed to parse %s", d.path), d.openErr)
	}

	page := d.reader.Page(index + 1)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d not found", index+1)
	}
	return imageRefs(page.Resources(), 0), nil
}

// Close releases the MuPDF document and the resource reader.
func (d *fitzDocument) Close() error {
	var errs []error

	if d.doc != nil {
		if err := d.doc.Close(); err != nil {
			errs = append(errs, err)
		}
		d.doc = nil
	}

	if d.file != nil {
		if err := d.file.Close(); err != nil {
			errs = append(errs, err)
		}
		d.file = nil
	}

	return errors.Join(errs...)
}

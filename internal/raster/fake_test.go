package raster

import (
	"errors"
	"image"
	"image/color"

	"github.com/spherical/docconv/internal/domain"
)

// fakeRenderer serves solid-colour pages and counts calls.
type fakeRenderer struct {
	pages       []image.Image
	imageCounts []int
	openErr     error
	failPage    int // 0-based index that fails to render, -1 for none

	opens       int
	closes      int
	renderCalls []int
}

func newFakeRenderer(pages ...image.Image) *fakeRenderer {
	return &fakeRenderer{pages: pages, failPage: -1}
}

func (f *fakeRenderer) Open(string) (domain.Document, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opens++
	return &fakeDocument{r: f}, nil
}

type fakeDocument struct {
	r *fakeRenderer
}

func (d *fakeDocument) PageCount() int { return len(d.r.pages) }

func (d *fakeDocument) RenderPage(i int) (image.Image, error) {
	d.r.renderCalls = append(d.r.renderCalls, i)
	if i == d.r.failPage {
		return nil, errors.New("corrupt content stream")
	}
	return d.r.pages[i], nil
}

func (d *fakeDocument) EmbeddedImages(i int) ([]domain.ImageRef, error) {
	refs := make([]domain.ImageRef, d.r.imageCounts[i])
	for k := range refs {
		refs[k] = domain.ImageRef{Name: "Im"}
	}
	return refs, nil
}

func (d *fakeDocument) Close() error {
	d.r.closes++
	return nil
}

func solidRGBA(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func solidGray(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

package raster

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/spherical/docconv/internal/domain"
)

// Composite is a vertical stack of page bitmaps.
type Composite struct {
	Image draw.Image
	// Offsets holds the top edge of each page, in page order.
	Offsets []int
}

// Stitch stacks pages top to bottom on a white canvas as wide as the widest
// page and as tall as all pages together. Narrower pages are left-aligned and
// the columns to their right stay white. The canvas is grayscale when every
// page is grayscale and RGBA otherwise.
func Stitch(pages []image.Image) (*Composite, error) {
	if len(pages) == 0 {
		return nil, domain.EmptyDocumentError("no pages to stitch", nil)
	}

	maxWidth, totalHeight := 0, 0
	allGray := true
	for _, p := range pages {
		b := p.Bounds()
		if b.Dx() > maxWidth {
			maxWidth = b.Dx()
		}
		totalHeight += b.Dy()
		if _, ok := p.(*image.Gray); !ok {
			allGray = false
		}
	}

	if maxWidth == 0 || totalHeight == 0 {
		return nil, domain.EmptyDocumentError("pages have zero area", nil)
	}

	bounds := image.Rect(0, 0, maxWidth, totalHeight)
	var canvas draw.Image
	if allGray {
		canvas = image.NewGray(bounds)
	} else {
		canvas = image.NewRGBA(bounds)
	}
	draw.Draw(canvas, bounds, image.White, image.Point{}, draw.Src)

	offsets := make([]int, 0, len(pages))
	y := 0
	for _, p := range pages {
		b := p.Bounds()
		offsets = append(offsets, y)
		draw.Draw(canvas, image.Rect(0, y, b.Dx(), y+b.Dy()), p, b.Min, draw.Src)
		y += b.Dy()
	}

	return &Composite{Image: canvas, Offsets: offsets}, nil
}

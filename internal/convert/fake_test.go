package convert

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spherical/docconv/internal/domain"
)

type fakeRenderer struct {
	pages       []image.Image
	imageCounts []int
	opens       int
	renders     int
}

func (f *fakeRenderer) Open(string) (domain.Document, error) {
	f.opens++
	return &fakeDocument{r: f}, nil
}

type fakeDocument struct{ r *fakeRenderer }

func (d *fakeDocument) PageCount() int { return len(d.r.pages) }

func (d *fakeDocument) RenderPage(i int) (image.Image, error) {
	d.r.renders++
	return d.r.pages[i], nil
}

func (d *fakeDocument) EmbeddedImages(i int) ([]domain.ImageRef, error) {
	if i >= len(d.r.imageCounts) {
		return nil, nil
	}
	return make([]domain.ImageRef, d.r.imageCounts[i]), nil
}

func (d *fakeDocument) Close() error { return nil }

// stripedPage draws horizontal bands so encoders have something to compress.
func stripedPage(w, h int, seed uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((y/4)*37) + seed + uint8(x%7)
			img.Set(x, y, color.RGBA{R: v, G: v / 2, B: 255 - v, A: 255})
		}
	}
	return img
}

// touch creates an input file so path validation passes; renderers are faked.
func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n"), 0o644))
	return path
}

type recordingConverter struct {
	calls [][2]string
	err   error
}

func (r *recordingConverter) Convert(_ context.Context, in, out string) error {
	r.calls = append(r.calls, [2]string{in, out})
	return r.err
}

type recordingArchives struct {
	calls [][2]string
}

func (r *recordingArchives) Extract(_ context.Context, in, dir string) error {
	r.calls = append(r.calls, [2]string{in, dir})
	return nil
}

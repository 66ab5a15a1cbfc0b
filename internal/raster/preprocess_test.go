package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isBinary(g *image.Gray) bool {
	for y := 0; y < g.Rect.Dy(); y++ {
		for _, p := range g.Pix[y*g.Stride : y*g.Stride+g.Rect.Dx()] {
			if p != 0 && p != 255 {
				return false
			}
		}
	}
	return true
}

// textPage draws a dark bar on a white background.
func textPage(w, h int) *image.RGBA {
	img := solidRGBA(w, h, color.White)
	for y := h / 3; y < h/3+4; y++ {
		for x := 5; x < w-5; x++ {
			img.Set(x, y, color.RGBA{R: 20, G: 20, B: 20, A: 255})
		}
	}
	return img
}

func TestParsePreprocessMode(t *testing.T) {
	tests := []struct {
		in      string
		want    PreprocessMode
		wantErr bool
	}{
		{"", PreprocessNone, false},
		{"none", PreprocessNone, false},
		{"grayscale", PreprocessGrayscale, false},
		{"grayscale_threshold", PreprocessThreshold, false},
		{"sharpen", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePreprocessMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestGaussianKernel(t *testing.T) {
	assert.Equal(t, []float64{0.0625, 0.25, 0.375, 0.25, 0.0625}, gaussianKernel(5, 0))

	k := gaussianKernel(11, 0)
	require.Len(t, k, 11)
	var sum float64
	for _, v := range k {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Equal(t, k[0], k[10])
	assert.Greater(t, k[5], k[4])
}

func TestBorders(t *testing.T) {
	assert.Equal(t, 1, reflect101(-1, 5))
	assert.Equal(t, 3, reflect101(5, 5))
	assert.Equal(t, 0, reflect101(-3, 1))
	assert.Equal(t, 0, replicate(-2, 5))
	assert.Equal(t, 4, replicate(7, 5))
}

func TestPreprocess_KeepsDimensions(t *testing.T) {
	src := textPage(40, 30)
	for _, mode := range []PreprocessMode{PreprocessNone, PreprocessGrayscale, PreprocessThreshold} {
		out := Preprocess(src, mode)
		assert.Equal(t, 40, out.Bounds().Dx(), mode)
		assert.Equal(t, 30, out.Bounds().Dy(), mode)
	}
}

func TestPreprocess_None(t *testing.T) {
	src := textPage(10, 10)
	assert.Same(t, src, Preprocess(src, PreprocessNone).(*image.RGBA))
}

func TestGrayscale(t *testing.T) {
	src := solidRGBA(3, 3, color.RGBA{R: 255, A: 255})
	gray := Grayscale(src)
	// 0.299 * 255
	assert.InDelta(t, 76, int(gray.GrayAt(1, 1).Y), 1)
}

func TestPreprocess_ThresholdIsBinary(t *testing.T) {
	out := Preprocess(textPage(60, 40), PreprocessThreshold)

	gray, ok := out.(*image.Gray)
	require.True(t, ok)
	assert.True(t, isBinary(gray))

	// Bar edges turn black; flat white background stays white.
	assert.Equal(t, uint8(0), gray.GrayAt(30, 40/3).Y)
	assert.Equal(t, uint8(255), gray.GrayAt(30, 35).Y)
	assert.Equal(t, uint8(255), gray.GrayAt(0, 0).Y)
}

func TestAdaptiveThreshold_UniformImageIsWhite(t *testing.T) {
	for _, v := range []uint8{0, 128, 255} {
		out := AdaptiveThreshold(solidGray(15, 15, v), 11, 2)
		for _, p := range out.Pix {
			require.Equal(t, uint8(255), p, "value %d", v)
		}
	}
}

func TestGaussianBlur_UniformUnchanged(t *testing.T) {
	out := GaussianBlur(solidGray(9, 9, 200), 5, 0, reflect101)
	for _, p := range out.Pix {
		require.Equal(t, uint8(200), p)
	}
}

func TestGaussianBlur_BinomialWeights(t *testing.T) {
	src := solidGray(7, 7, 0)
	src.SetGray(3, 3, color.Gray{Y: 255})

	out := GaussianBlur(src, 5, 0, reflect101)

	// 255 * row weight * column weight from [1 4 6 4 1]/16, rounded.
	tests := []struct {
		x, y int
		want uint8
	}{
		{3, 3, 36}, // .375 * .375
		{4, 3, 24}, // .25 * .375
		{5, 3, 6},  // .0625 * .375
		{4, 4, 16}, // .25 * .25
		{5, 5, 1},  // .0625 * .0625
		{6, 3, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, out.GrayAt(tt.x, tt.y).Y, "(%d,%d)", tt.x, tt.y)
	}
}

func TestGaussianBlur_ReflectBorderSkipsEdge(t *testing.T) {
	src := solidGray(5, 5, 0)
	src.SetGray(0, 0, color.Gray{Y: 255})

	reflected := GaussianBlur(src, 5, 0, reflect101)
	assert.Equal(t, uint8(36), reflected.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(24), reflected.GrayAt(1, 0).Y)
	assert.Equal(t, uint8(6), reflected.GrayAt(2, 0).Y)

	// Replicating the edge folds three taps onto the corner: (.6875)^2.
	replicated := GaussianBlur(src, 5, 0, replicate)
	assert.Equal(t, uint8(121), replicated.GrayAt(0, 0).Y)
}

func TestAdaptiveThreshold_DarkDot(t *testing.T) {
	src := solidGray(15, 15, 255)
	src.SetGray(7, 7, color.Gray{Y: 0})

	out := AdaptiveThreshold(src, 11, 2)
	for y := 0; y < 15; y++ {
		for x := 0; x < 15; x++ {
			want := uint8(255)
			if x == 7 && y == 7 {
				want = 0
			}
			require.Equal(t, want, out.GrayAt(x, y).Y, "(%d,%d)", x, y)
		}
	}
}

func TestAdaptiveThreshold_ConstantMargin(t *testing.T) {
	// The local mean around a single off pixel in a field of 200 rounds to 200.
	tests := []struct {
		center uint8
		want   uint8
	}{
		{199, 255}, // 1 below the mean stays white
		{198, 0},   // 2 below the mean is not above mean-C
		{201, 255},
	}
	for _, tt := range tests {
		src := solidGray(15, 15, 200)
		src.SetGray(7, 7, color.Gray{Y: tt.center})
		out := AdaptiveThreshold(src, 11, 2)
		assert.Equal(t, tt.want, out.GrayAt(7, 7).Y, "center %d", tt.center)
	}
}

func TestFlattenOnWhite(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{A: 0})
	src.SetNRGBA(1, 0, color.NRGBA{R: 0, G: 0, B: 0, A: 255})

	out := FlattenOnWhite(src)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, out.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{A: 255}, out.RGBAAt(1, 0))
}

package raster

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// PreprocessMode selects the pixel transform applied to each rendered page.
type PreprocessMode string

const (
	// PreprocessNone keeps rendered pages as they are.
	PreprocessNone PreprocessMode = "none"
	// PreprocessGrayscale converts to 8-bit luma.
	PreprocessGrayscale PreprocessMode = "grayscale"
	// PreprocessThreshold converts to luma, blurs with a 5x5 Gaussian and
	// binarizes with an adaptive Gaussian threshold (block 11, C 2).
	// Applying it twice is unsupported: the output is not guaranteed stable.
	PreprocessThreshold PreprocessMode = "grayscale_threshold"
)

const (
	blurKernelSize      = 5
	thresholdBlockSize  = 11
	thresholdConstant   = 2
	thresholdForeground = 255
)

// ParsePreprocessMode validates a mode name. The empty string maps to PreprocessNone.
func ParsePreprocessMode(s string) (PreprocessMode, error) {
	switch PreprocessMode(s) {
	case "", PreprocessNone:
		return PreprocessNone, nil
	case PreprocessGrayscale, PreprocessThreshold:
		return PreprocessMode(s), nil
	}
	return "", fmt.Errorf("unknown preprocess mode %q", s)
}

// Preprocess applies mode to img. Dimensions never change.
func Preprocess(img image.Image, mode PreprocessMode) image.Image {
	switch mode {
	case PreprocessGrayscale:
		return Grayscale(img)
	case PreprocessThreshold:
		gray := Grayscale(img)
		blurred := GaussianBlur(gray, blurKernelSize, 0, reflect101)
		return AdaptiveThreshold(blurred, thresholdBlockSize, thresholdConstant)
	default:
		return img
	}
}

// Grayscale converts img to 8-bit luma (ITU-R 601 weights).
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// FlattenOnWhite composites img over an opaque white background.
func FlattenOnWhite(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Over)
	return out
}

type borderFunc func(i, n int) int

// reflect101 mirrors without repeating the edge: gfedcb|abcdefgh|gfedcba.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

// replicate repeats the edge pixel: aaaaaa|abcdefgh|hhhhhhh.
func replicate(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// gaussianKernel returns a normalized 1-D kernel. With sigma <= 0 and ksize <= 7
// the fixed binomial tables are used; otherwise sigma defaults to
// 0.3*((ksize-1)*0.5-1)+0.8.
func gaussianKernel(ksize int, sigma float64) []float64 {
	if sigma <= 0 {
		switch ksize {
		case 1:
			return []float64{1}
		case 3:
			return []float64{0.25, 0.5, 0.25}
		case 5:
			return []float64{0.0625, 0.25, 0.375, 0.25, 0.0625}
		case 7:
			return []float64{0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125}
		}
		sigma = 0.3*(float64(ksize-1)*0.5-1) + 0.8
	}

	kernel := make([]float64, ksize)
	center := float64(ksize-1) / 2
	scale := -0.5 / (sigma * sigma)
	var sum float64
	for i := range kernel {
		x := float64(i) - center
		kernel[i] = math.Exp(scale * x * x)
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// GaussianBlur smooths src with a separable ksize x ksize Gaussian kernel.
func GaussianBlur(src *image.Gray, ksize int, sigma float64, border borderFunc) *image.Gray {
	kernel := gaussianKernel(ksize, sigma)
	radius := ksize / 2
	w, h := src.Rect.Dx(), src.Rect.Dy()

	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w]
		for x := 0; x < w; x++ {
			var acc float64
			for k, kv := range kernel {
				acc += kv * float64(row[border(x+k-radius, w)])
			}
			tmp[y*w+x] = acc
		}
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for k, kv := range kernel {
				acc += kv * tmp[border(y+k-radius, h)*w+x]
			}
			dst.Pix[y*dst.Stride+x] = clampUint8(acc)
		}
	}
	return dst
}

// AdaptiveThreshold binarizes src against its Gaussian-weighted local mean:
// a pixel becomes white when it is brighter than mean-c, black otherwise.
func AdaptiveThreshold(src *image.Gray, blockSize int, c float64) *image.Gray {
	mean := GaussianBlur(src, blockSize, 0, replicate)
	delta := int(math.Ceil(c))
	w, h := src.Rect.Dx(), src.Rect.Dy()

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s := int(src.Pix[y*src.Stride+x])
			m := int(mean.Pix[y*mean.Stride+x])
			if s-m > -delta {
				dst.Pix[y*dst.Stride+x] = thresholdForeground
			}
		}
	}
	return dst
}

func clampUint8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

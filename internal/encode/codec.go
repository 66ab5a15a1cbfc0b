package encode

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/spherical/docconv/internal/domain"
)

// StdCodec encodes with the standard library PNG and JPEG encoders.
type StdCodec struct{}

// NewStdCodec creates the default codec.
func NewStdCodec() *StdCodec {
	return &StdCodec{}
}

// EncodePNG encodes img losslessly. PNG has no lossy quality, so the schedule
// value selects the compression level instead.
func (c *StdCodec) EncodePNG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: pngLevel(quality)}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, domain.EncodingError("failed to encode PNG", err)
	}
	return buf.Bytes(), nil
}

// EncodeJPEG encodes img with the given quality.
func (c *StdCodec) EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, domain.EncodingError("failed to encode JPEG", err)
	}
	return buf.Bytes(), nil
}

func pngLevel(quality int) png.CompressionLevel {
	switch {
	case quality <= 0:
		return png.DefaultCompression
	case quality >= 80:
		return png.BestSpeed
	case quality >= 40:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

package encode

import (
	"image"

	"github.com/spherical/docconv/internal/domain"
	"github.com/spherical/docconv/internal/observability"
	"github.com/spherical/docconv/internal/raster"
)

// Compressor recompresses a single image as grayscale JPEG under a byte budget.
//
// Unlike Encoder it has no PNG pass, accepts only sizes strictly below the
// target, and always leaves an artifact: when nothing fits, the last schedule
// step (quality 1) is written.
type Compressor struct {
	codec  domain.Codec
	logger *observability.Logger
}

// NewCompressor creates a compressor.
func NewCompressor(codec domain.Codec, logger *observability.Logger) *Compressor {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Compressor{codec: codec, logger: logger}
}

// Compress flattens transparency onto white, converts to grayscale and writes
// the first JPEG quality whose size is < target.
func (c *Compressor) Compress(img image.Image, target int64, outputPath string) (*Result, error) {
	gray := raster.Grayscale(raster.FlattenOnWhite(img))

	res := &Result{Format: domain.FormatJPEG, Attempts: make([]domain.EncodingAttempt, 0, ScheduleSteps)}

	var last []byte
	for _, q := range Schedule() {
		data, err := c.codec.EncodeJPEG(gray, q)
		if err != nil {
			return res, err
		}
		res.Attempts = append(res.Attempts, domain.EncodingAttempt{Format: domain.FormatJPEG, Quality: q, Size: len(data)})
		last = data
		res.Quality = q

		if int64(len(data)) < target {
			res.Met = true
			break
		}
	}

	if err := writeArtifact(outputPath, last); err != nil {
		return res, err
	}

	res.Path = outputPath
	res.Size = len(last)

	if !res.Met {
		c.logger.Warn().
			Str("output", outputPath).
			Int64("target_size", target).
			Int("size", res.Size).
			Msg("Target size not reached, kept lowest quality")
	}

	return res, nil
}

package encode

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"

	"github.com/spherical/docconv/internal/domain"
	"github.com/spherical/docconv/internal/observability"
)

// Result describes the outcome of a size-bounded search.
type Result struct {
	// Path of the written artifact. Empty when the encoder found nothing that fits.
	Path    string
	Format  domain.Format
	Quality int
	Size    int
	// Met is false when the byte budget was not satisfied.
	Met      bool
	Attempts []domain.EncodingAttempt
}

// Encoder writes a bitmap as the first PNG or JPEG encoding that fits a byte budget.
//
// Search order: lossless PNG, then PNG at every schedule quality, then JPEG at
// every schedule quality. The first attempt whose size is <= target is written
// and returned. When nothing fits no file is left at either path.
type Encoder struct {
	codec  domain.Codec
	logger *observability.Logger
}

// NewEncoder creates a size-bounded encoder.
func NewEncoder(codec domain.Codec, logger *observability.Logger) *Encoder {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Encoder{codec: codec, logger: logger}
}

// Encode runs the search. A Result with an empty Path means the budget was not met;
// that is not an error. Codec and filesystem failures are returned as errors.
func (e *Encoder) Encode(img image.Image, target int64, pngPath, jpegPath string) (*Result, error) {
	res := &Result{Attempts: make([]domain.EncodingAttempt, 0, 2*ScheduleSteps+1)}

	ok, err := e.try(res, img, domain.FormatPNG, 0, target, pngPath)
	if err != nil || ok {
		return res, err
	}

	for _, q := range Schedule() {
		ok, err := e.try(res, img, domain.FormatPNG, q, target, pngPath)
		if err != nil || ok {
			return res, err
		}
	}

	if err := removeIfExists(pngPath); err != nil {
		return res, err
	}

	for _, q := range Schedule() {
		ok, err := e.try(res, img, domain.FormatJPEG, q, target, jpegPath)
		if err != nil || ok {
			return res, err
		}
	}

	if err := removeIfExists(jpegPath); err != nil {
		return res, err
	}

	e.logger.Debug().
		Int64("target_size", target).
		Int("attempts", len(res.Attempts)).
		Msg("No encoding fits the target size")

	return res, nil
}

func (e *Encoder) try(res *Result, img image.Image, format domain.Format, quality int, target int64, path string) (bool, error) {
	var (
		data []byte
		err  error
	)
	if format == domain.FormatPNG {
		data, err = e.codec.EncodePNG(img, quality)
	} else {
		data, err = e.codec.EncodeJPEG(img, quality)
	}
	if err != nil {
		return false, err
	}

	res.Attempts = append(res.Attempts, domain.EncodingAttempt{Format: format, Quality: quality, Size: len(data)})
	if int64(len(data)) > target {
		return false, nil
	}

	if err := writeArtifact(path, data); err != nil {
		return false, err
	}

	res.Path = path
	res.Format = format
	res.Quality = quality
	res.Size = len(data)
	res.Met = true
	return true, nil
}

func writeArtifact(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return domain.IOError(fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return domain.IOError(fmt.Sprintf("failed to remove %s", path), err)
	}
	return nil
}

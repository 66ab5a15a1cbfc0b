package encode

import (
	"fmt"
	"image"
	"os"

	// Decoders for every input format accepted by the compressor.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spherical/docconv/internal/domain"
)

// DecodeFile reads an image from disk and reports its format name.
func DecodeFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", domain.IOError(fmt.Sprintf("cannot open image: %s", path), err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", domain.ValidationError(fmt.Sprintf("cannot decode image: %s", path), err)
	}
	return img, format, nil
}

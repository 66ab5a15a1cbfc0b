package pdf

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/spherical/docconv/internal/domain"
)

// TruncatedSuffix is appended to the base name of truncated copies.
const TruncatedSuffix = "_truncated.pdf"

// PageCount reports the number of pages of a PDF without rendering it.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, domain.DocumentOpenError(fmt.Sprintf("failed to read %s", path), err)
	}
	return n, nil
}

// Truncate returns path unchanged when the PDF has at most maxPages pages.
// Otherwise it writes pages 1..maxPages to outputDir/<base>_truncated.pdf and
// returns that path. maxPages <= 0 disables truncation.
func Truncate(path, outputDir string, maxPages int) (string, error) {
	if maxPages <= 0 {
		return path, nil
	}

	total, err := PageCount(path)
	if err != nil {
		return "", err
	}
	if total <= maxPages {
		return path, nil
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := filepath.Join(outputDir, base+TruncatedSuffix)

	pages := []string{fmt.Sprintf("1-%d", maxPages)}
	if err := api.TrimFile(path, out, pages, model.NewDefaultConfiguration()); err != nil {
		return "", domain.ConversionError(fmt.Sprintf("failed to truncate %s to %d pages", path, maxPages), err)
	}
	return out, nil
}

package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/spherical/docconv/internal/domain"
	"github.com/spherical/docconv/internal/observability"
)

// TextFileName is the name of the extracted text file in the output directory.
const TextFileName = "cv.txt"

// specialChars maps ligatures and medieval digraph letters to ASCII.
var specialChars = map[rune]string{
	0xA728: "TZ",
	0xA729: "tz",
	0xA732: "AA",
	0xA733: "aa",
	0xA734: "AO",
	0xA735: "ao",
	0xA736: "AU",
	0xA737: "au",
	0xA738: "AV",
	0xA739: "av",
	0xA73A: "AV",
	0xA73B: "av",
	0xA73C: "AY",
	0xA73D: "ay",
	0xA74E: "OO",
	0xA74F: "oo",
	0xA760: "VY",
	0xA761: "vy",
	0xFB00: "ff",
	0xFB01: "fi",
	0xFB02: "fl",
	0xFB03: "ffi",
	0xFB04: "ffl",
	0xFB05: "ft",
	0xFB06: "st",
}

var specialCharReplacer = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(specialChars))
	for r, s := range specialChars {
		pairs = append(pairs, string(r), s)
	}
	return strings.NewReplacer(pairs...)
}()

// ReplaceSpecialChars spells ligatures out in ASCII.
func ReplaceSpecialChars(s string) string {
	if s == "" {
		return s
	}
	return specialCharReplacer.Replace(s)
}

// PageSeparator ends the text of one page and starts the next.
const PageSeparator = "\f"

// PlainText extracts the text layer of every page, pages separated by a form feed.
func PlainText(path string) (string, error) {
	f, r, err := lpdf.Open(path)
	if err != nil {
		return "", domain.DocumentOpenError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", domain.ConversionError(fmt.Sprintf("failed to read text of page %d", i), err)
		}
		pages = append(pages, text)
	}
	return joinPages(pages), nil
}

func joinPages(pages []string) string {
	return strings.Join(pages, PageSeparator)
}

// TextExtractor writes the text layer of a PDF to a file.
type TextExtractor struct {
	logger *observability.Logger
}

// NewTextExtractor creates a text extractor.
func NewTextExtractor(logger *observability.Logger) *TextExtractor {
	if logger == nil {
		logger = observability.Nop()
	}
	return &TextExtractor{logger: logger}
}

// Extract reads at most maxPages pages of pdfPath. When the trimmed text has
// fewer than minChars characters it returns "" and writes nothing; otherwise
// it writes outputDir/cv.txt and returns its path.
func (e *TextExtractor) Extract(pdfPath, outputDir string, minChars, maxPages int) (string, error) {
	src, err := Truncate(pdfPath, outputDir, maxPages)
	if err != nil {
		return "", err
	}
	if src != pdfPath {
		e.logger.Debug().Str("path", src).Int("max_pages", maxPages).Msg("Truncated document")
	}

	text, err := PlainText(src)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minChars {
		e.logger.Info().
			Str("path", pdfPath).
			Int("chars", utf8.RuneCountInString(text)).
			Int("min_chars", minChars).
			Msg("Too little text, skipping")
		return "", nil
	}

	out := filepath.Join(outputDir, TextFileName)
	if err := os.WriteFile(out, []byte(ReplaceSpecialChars(text)), 0o644); err != nil {
		return "", domain.IOError(fmt.Sprintf("failed to write %s", out), err)
	}
	return out, nil
}

package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spherical/docconv/internal/domain"
)

// maxDocumentSize is the size above which a warning is logged.
const maxDocumentSize = 100 * 1024 * 1024

// Validator provides input validation for documents and operation parameters
type Validator struct {
	// OnLargeFile is called for files over 100MB. Optional.
	OnLargeFile func(path string, size int64)
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateDocumentPath validates that a path points to a readable regular file
func (v *Validator) ValidateDocumentPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return domain.ValidationError("file path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ValidationError(fmt.Sprintf("file does not exist: %s", path), err)
		}
		return domain.ValidationError(fmt.Sprintf("cannot access file: %s", path), err)
	}

	if info.IsDir() {
		return domain.ValidationError(fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}

	if info.Size() > maxDocumentSize && v.OnLargeFile != nil {
		v.OnLargeFile(path, info.Size())
	}

	file, err := os.Open(path)
	if err != nil {
		return domain.ValidationError(fmt.Sprintf("cannot open file: %s", path), err)
	}
	file.Close()

	return nil
}

// ValidatePDFPath additionally requires a .pdf extension
func (v *Validator) ValidatePDFPath(path string) error {
	if err := v.ValidateDocumentPath(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".pdf" {
		return domain.ValidationError(fmt.Sprintf("file is not a PDF (has extension %s)", ext), nil)
	}
	return nil
}

// ValidateOutputDir creates the output directory when missing
func (v *Validator) ValidateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return domain.ValidationError("output directory cannot be empty", nil)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.IOError(fmt.Sprintf("cannot create output directory: %s", dir), err)
	}
	return nil
}

// ValidateTargetSize validates a byte budget
func (v *Validator) ValidateTargetSize(size int64) error {
	if size < 0 {
		return domain.ValidationError(fmt.Sprintf("target size must not be negative, got %d", size), nil)
	}
	return nil
}

// ValidatePageLimit validates a page cap; zero means no cap
func (v *Validator) ValidatePageLimit(limit int) error {
	if limit < 0 {
		return domain.ValidationError(fmt.Sprintf("page limit must not be negative, got %d", limit), nil)
	}
	return nil
}

// ValidateMaxPages validates the page count of a stacked image. At least one
// page is required; there is no "all pages" value.
func (v *Validator) ValidateMaxPages(limit int) error {
	if limit < 1 {
		return domain.ValidationError(fmt.Sprintf("max pages must be at least 1, got %d", limit), nil)
	}
	return nil
}

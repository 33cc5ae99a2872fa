package ocr

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spherical/calendar-extractor/internal/domain"
)

// imageExtensions lists the raster formats tesseract reads through leptonica.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
	".gif":  true,
	".webp": true,
	".pnm":  true,
}

const pdfExtension = ".pdf"

// IsSupported reports whether path has an extension the OCR stage accepts.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return imageExtensions[ext] || ext == pdfExtension
}

func isPDF(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == pdfExtension
}

// Validator provides input validation for calendar images
type Validator struct {
	logger *domain.Logger
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{logger: domain.DefaultLogger().WithPrefix("ocr")}
}

// ValidateInputPath checks that path names a readable image or PDF file.
func (v *Validator) ValidateInputPath(path string) error {
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

	if !IsSupported(path) {
		return domain.ValidationError(fmt.Sprintf("unsupported file type %q", filepath.Ext(path)), nil)
	}

	const maxSize = 50 * 1024 * 1024
	if info.Size() > maxSize {
		v.logger.Warn("Input file is very large (%d MB), OCR may take a while", info.Size()/(1024*1024))
	}

	file, err := os.Open(path)
	if err != nil {
		return domain.ValidationError(fmt.Sprintf("cannot open file: %s", path), err)
	}
	file.Close()

	return nil
}

// ValidateDPI validates the PDF render resolution
func (v *Validator) ValidateDPI(dpi float64) error {
	if dpi < 36 || dpi > 1200 {
		return domain.ValidationError(fmt.Sprintf("dpi must be between 36 and 1200, got %g", dpi), nil)
	}
	return nil
}

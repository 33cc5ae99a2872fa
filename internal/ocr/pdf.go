package ocr

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"

	"github.com/spherical/calendar-extractor/internal/domain"
)

// Renderer turns the pages of a scanned PDF calendar into PNG files that
// tesseract can read.
type Renderer struct {
	dpi     float64
	doc     *fitz.Document
	tempDir string
}

// NewRenderer creates a renderer producing images at dpi.
func NewRenderer(dpi float64) *Renderer {
	return &Renderer{dpi: dpi}
}

// Render writes one PNG per page into a temporary directory. Call Cleanup
// when the images are no longer needed.
func (r *Renderer) Render(ctx context.Context, pdfPath string) ([]domain.PageImage, error) {
	validator := NewValidator()
	if err := validator.ValidateInputPath(pdfPath); err != nil {
		return nil, err
	}
	if err := validator.ValidateDPI(r.dpi); err != nil {
		return nil, err
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, domain.ConversionError("Failed to open PDF", err)
	}
	r.doc = doc

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, domain.ValidationError("PDF has no pages", nil)
	}

	tempDir, err := os.MkdirTemp("", "calendar-extractor-*")
	if err != nil {
		return nil, domain.IOError("Failed to create temp directory", err)
	}
	r.tempDir = tempDir

	images := make([]domain.PageImage, 0, pageCount)
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := doc.ImageDPI(pageNum, r.dpi)
		if err != nil {
			return nil, domain.ConversionError(fmt.Sprintf("Failed to render page %d", pageNum+1), err)
		}

		outputPath := filepath.Join(tempDir, fmt.Sprintf("page_%03d.png", pageNum+1))
		outputFile, err := os.Create(outputPath)
		if err != nil {
			return nil, domain.IOError(fmt.Sprintf("Failed to create output file for page %d", pageNum+1), err)
		}

		err = png.Encode(outputFile, img)
		outputFile.Close()
		if err != nil {
			return nil, domain.ConversionError(fmt.Sprintf("Failed to encode page %d as PNG", pageNum+1), err)
		}

		bounds := img.Bounds()
		images = append(images, domain.PageImage{
			PageNumber: pageNum + 1,
			ImagePath:  outputPath,
			Width:      bounds.Dx(),
			Height:     bounds.Dy(),
		})
	}

	return images, nil
}

// Cleanup removes temporary files and closes the PDF document
func (r *Renderer) Cleanup() error {
	if r.doc != nil {
		r.doc.Close()
		r.doc = nil
	}

	if r.tempDir != "" {
		err := os.RemoveAll(r.tempDir)
		r.tempDir = ""
		if err != nil {
			return fmt.Errorf("cleanup: %w", err)
		}
	}

	return nil
}

// Package ocr extracts text from calendar images by running the tesseract
// command-line engine. Scanned PDFs are rendered to images first.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/spherical/calendar-extractor/internal/domain"
)

const pageSeparator = "\n\n"

// lookPath is swapped out by tests that simulate a missing binary.
var lookPath = exec.LookPath

var _ domain.TextSource = (*Tesseract)(nil)

// Options configures a Tesseract runner.
type Options struct {
	Command  string
	Language string
	PSM      int // page segmentation mode; 0 leaves tesseract's default
	Timeout  time.Duration
	PDFDPI   float64
	Logger   *domain.Logger
}

// Tesseract runs the tesseract binary. It satisfies domain.TextSource.
type Tesseract struct {
	opts   Options
	logger *domain.Logger
}

// NewTesseract creates a runner. Zero fields fall back to sensible defaults.
func NewTesseract(opts Options) *Tesseract {
	if opts.Command == "" {
		opts.Command = "tesseract"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.PDFDPI <= 0 {
		opts.PDFDPI = 200
	}
	logger := opts.Logger
	if logger == nil {
		logger = domain.DefaultLogger()
	}
	return &Tesseract{opts: opts, logger: logger.WithPrefix("ocr")}
}

// Available reports whether the configured binary can be found.
func (t *Tesseract) Available() bool {
	_, err := lookPath(t.opts.Command)
	return err == nil
}

// ExtractText returns the recognised text of an image, or "" on any failure.
func (t *Tesseract) ExtractText(ctx context.Context, imagePath string) string {
	text, err := t.Recognize(ctx, imagePath)
	if err != nil {
		t.logger.Warn("OCR failed for %s: %v", imagePath, err)
		return ""
	}
	return text
}

// Recognize is ExtractText with the failure reported.
func (t *Tesseract) Recognize(ctx context.Context, path string) (string, error) {
	if err := NewValidator().ValidateInputPath(path); err != nil {
		return "", err
	}
	if !t.Available() {
		return "", domain.OCRError(fmt.Sprintf("%s is not installed or not on PATH", t.opts.Command), nil)
	}

	if !isPDF(path) {
		out, err := t.run(ctx, path)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(out)), nil
	}

	var texts []string
	err := t.eachPage(ctx, path, func(page domain.PageImage) error {
		out, err := t.run(ctx, page.ImagePath)
		if err != nil {
			return fmt.Errorf("page %d: %w", page.PageNumber, err)
		}
		if text := strings.TrimSpace(string(out)); text != "" {
			texts = append(texts, text)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.Join(texts, pageSeparator), nil
}

// eachPage renders a PDF and calls fn for every page image.
func (t *Tesseract) eachPage(ctx context.Context, pdfPath string, fn func(domain.PageImage) error) error {
	renderer := NewRenderer(t.opts.PDFDPI)
	defer func() {
		if err := renderer.Cleanup(); err != nil {
			t.logger.Warn("Failed to remove rendered pages: %v", err)
		}
	}()

	pages, err := renderer.Render(ctx, pdfPath)
	if err != nil {
		return err
	}
	t.logger.Debug("Rendered %d pages from %s", len(pages), pdfPath)

	for _, page := range pages {
		if err := fn(page); err != nil {
			return err
		}
	}
	return nil
}

// args builds the tesseract argument list. Config names such as "tsv" go last.
func (t *Tesseract) args(imagePath string, configs ...string) []string {
	args := []string{imagePath, "stdout"}
	if t.opts.Language != "" {
		args = append(args, "-l", t.opts.Language)
	}
	if t.opts.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.opts.PSM))
	}
	return append(args, configs...)
}

// run executes tesseract on one image under the configured timeout.
func (t *Tesseract) run(ctx context.Context, imagePath string, configs ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.opts.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.opts.Command, t.args(imagePath, configs...)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	t.logger.Debug("tesseract %s finished in %v", imagePath, time.Since(start))

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, domain.OCRError(fmt.Sprintf("tesseract timed out after %v", t.opts.Timeout), ctx.Err())
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "tesseract failed"
		}
		return nil, domain.OCRError(msg, err)
	}

	return stdout.Bytes(), nil
}

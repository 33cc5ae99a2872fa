package ocr

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spherical/calendar-extractor/internal/domain"
)

// tesseract TSV level for a single word
const wordLevel = 5

// Word is one recognised word with its position on the page.
type Word struct {
	Page       int     `json:"page"`
	Block      int     `json:"block"`
	Line       int     `json:"line"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Left       int     `json:"left"`
	Top        int     `json:"top"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// ExtractWords runs tesseract in TSV mode and returns every recognised word
// with its bounding box.
func (t *Tesseract) ExtractWords(ctx context.Context, path string) ([]Word, error) {
	if err := NewValidator().ValidateInputPath(path); err != nil {
		return nil, err
	}
	if !t.Available() {
		return nil, domain.OCRError(fmt.Sprintf("%s is not installed or not on PATH", t.opts.Command), nil)
	}

	if !isPDF(path) {
		out, err := t.run(ctx, path, "tsv")
		if err != nil {
			return nil, err
		}
		return parseTSV(bytes.NewReader(out), 1)
	}

	var words []Word
	err := t.eachPage(ctx, path, func(page domain.PageImage) error {
		out, err := t.run(ctx, page.ImagePath, "tsv")
		if err != nil {
			return fmt.Errorf("page %d: %w", page.PageNumber, err)
		}
		pageWords, err := parseTSV(bytes.NewReader(out), page.PageNumber)
		if err != nil {
			return fmt.Errorf("page %d: %w", page.PageNumber, err)
		}
		words = append(words, pageWords...)
		return nil
	})
	return words, err
}

// parseTSV reads tesseract's TSV output. Columns are
// level page_num block_num par_num line_num word_num left top width height conf text.
func parseTSV(r io.Reader, page int) ([]Word, error) {
	words := []Word{}
	scanner := bufio.NewScanner(r)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if lineNo == 1 && strings.HasPrefix(line, "level") {
			continue
		}

		cols := strings.Split(line, "\t")
		if len(cols) < 12 {
			continue
		}

		level, err := strconv.Atoi(cols[0])
		if err != nil {
			return nil, domain.OCRError(fmt.Sprintf("malformed TSV at line %d", lineNo), err)
		}
		text := strings.TrimSpace(strings.Join(cols[11:], "\t"))
		if level != wordLevel || text == "" {
			continue
		}

		ints := make([]int, 0, 6)
		for _, idx := range []int{2, 4, 6, 7, 8, 9} {
			n, err := strconv.Atoi(cols[idx])
			if err != nil {
				return nil, domain.OCRError(fmt.Sprintf("malformed TSV at line %d", lineNo), err)
			}
			ints = append(ints, n)
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil {
			return nil, domain.OCRError(fmt.Sprintf("malformed TSV at line %d", lineNo), err)
		}

		words = append(words, Word{
			Page:       page,
			Block:      ints[0],
			Line:       ints[1],
			Left:       ints[2],
			Top:        ints[3],
			Width:      ints[4],
			Height:     ints[5],
			Confidence: conf,
			Text:       text,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, domain.OCRError("read TSV", err)
	}
	return words, nil
}

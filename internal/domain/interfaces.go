package domain

import "context"

// TextSource turns an image into raw OCR text.
type TextSource interface {
	// ExtractText never fails: unreadable or unsupported inputs yield an empty
	// string and a logged diagnostic.
	ExtractText(ctx context.Context, imagePath string) string
}

// LMClient sends a prompt to a language model and returns its raw reply.
type LMClient interface {
	// Complete returns the model's free-form text response. Transport and
	// backend failures are returned as errors so the caller can decide how to
	// degrade.
	Complete(ctx context.Context, prompt, model string) (string, error)
}

// ResultWriter persists extraction results.
type ResultWriter interface {
	// WriteEvents persists a single image's events as a top-level sequence.
	WriteEvents(path string, events []Event) error

	// WriteBatch persists a batch result as a mapping keyed by image.
	WriteBatch(path string, result *BatchResult) error
}

package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError(t *testing.T) {
	cause := errors.New("connection refused")
	err := APIError("call model", cause)

	if got, want := err.Error(), "[api] call model: connection refused"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find the cause")
	}

	bare := ConfigError("missing key", nil)
	if got, want := bare.Error(), "[config] missing key"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIsType(t *testing.T) {
	wrapped := fmt.Errorf("image a.png: %w", OCRError("tesseract failed", nil))

	if !IsType(wrapped, ErrorTypeOCR) {
		t.Error("IsType did not see through fmt.Errorf wrapping")
	}
	if IsType(wrapped, ErrorTypeAPI) {
		t.Error("IsType matched the wrong type")
	}
	if IsType(errors.New("plain"), ErrorTypeOCR) {
		t.Error("IsType matched a plain error")
	}
	if IsType(nil, ErrorTypeIO) {
		t.Error("IsType matched nil")
	}
}

func TestErrModelNotFound(t *testing.T) {
	err := fmt.Errorf("image a.png: %w", APIError("model llama9", ErrModelNotFound))
	if !errors.Is(err, ErrModelNotFound) {
		t.Error("ErrModelNotFound lost through wrapping")
	}
}

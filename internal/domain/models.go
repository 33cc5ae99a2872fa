package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Event is a single calendar entry extracted from an image.
type Event struct {
	Title          string `json:"title" yaml:"title"`
	Description    string `json:"description" yaml:"description"`
	Date           string `json:"date" yaml:"date"`                       // free-form, not validated
	Time           string `json:"time" yaml:"time"`                       // free-form, may be a range
	Repeating      bool   `json:"repeating" yaml:"repeating"`
	RepeatSchedule string `json:"repeat_schedule" yaml:"repeat_schedule"` // meaningful only when Repeating
}

// HasTitle reports whether the event carries a non-empty title.
func (e Event) HasTitle() bool {
	return strings.TrimSpace(e.Title) != ""
}

// BatchEntry is one image's slot in a BatchResult.
type BatchEntry struct {
	Image  string
	Events []Event
}

// BatchResult maps image identifiers to their events, preserving the order in
// which images were added.
type BatchResult struct {
	entries []BatchEntry
	index   map[string]int
}

// NewBatchResult creates an empty batch result.
func NewBatchResult() *BatchResult {
	return &BatchResult{index: make(map[string]int)}
}

// Set stores the events for an image. Re-setting an existing image replaces
// its events and keeps its original position.
func (b *BatchResult) Set(image string, events []Event) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	if events == nil {
		events = []Event{}
	}
	if i, ok := b.index[image]; ok {
		b.entries[i].Events = events
		return
	}
	b.index[image] = len(b.entries)
	b.entries = append(b.entries, BatchEntry{Image: image, Events: events})
}

// Get returns the events stored for an image.
func (b *BatchResult) Get(image string) ([]Event, bool) {
	i, ok := b.index[image]
	if !ok {
		return nil, false
	}
	return b.entries[i].Events, true
}

// Len returns the number of images in the result.
func (b *BatchResult) Len() int {
	return len(b.entries)
}

// Images returns image identifiers in insertion order.
func (b *BatchResult) Images() []string {
	images := make([]string, len(b.entries))
	for i, e := range b.entries {
		images[i] = e.Image
	}
	return images
}

// Entries returns a copy of the entries in insertion order.
func (b *BatchResult) Entries() []BatchEntry {
	out := make([]BatchEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// TotalEvents returns the number of events across all images.
func (b *BatchResult) TotalEvents() int {
	total := 0
	for _, e := range b.entries {
		total += len(e.Events)
	}
	return total
}

// MarshalJSON encodes the result as a JSON object whose keys follow insertion
// order.
func (b *BatchResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range b.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Image)
		if err != nil {
			return nil, err
		}
		events := e.Events
		if events == nil {
			events = []Event{}
		}
		val, err := json.Marshal(events)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the key order of the document.
func (b *BatchResult) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("batch result: expected object, got %v", tok)
	}

	*b = BatchResult{index: make(map[string]int)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("batch result: expected string key, got %v", tok)
		}
		var events []Event
		if err := dec.Decode(&events); err != nil {
			return fmt.Errorf("batch result: entry %q: %w", key, err)
		}
		b.Set(key, events)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// PageImage represents a single page rendered from a multi-page document
type PageImage struct {
	PageNumber int
	ImagePath  string // Path to temporary image file
	Width      int
	Height     int
}

// EventType represents the type of stream event
type EventType string

const (
	EventStart           EventType = "start"
	EventImageProcessing EventType = "image_processing"
	EventOCRComplete     EventType = "ocr_complete"
	EventImageComplete   EventType = "image_complete"
	EventError           EventType = "error"
	EventComplete        EventType = "complete"
)

// StreamEvent represents a progress event emitted during batch processing
type StreamEvent struct {
	Type      EventType   `json:"type"`
	Image     string      `json:"image,omitempty"`
	Index     int         `json:"index,omitempty"` // 1-based position in the batch
	Total     int         `json:"total,omitempty"`
	Payload   interface{} `json:"payload,omitempty"` // status message, error text or event count
	Timestamp time.Time   `json:"timestamp"`
}

// ProcessingStats contains metadata about a batch run
type ProcessingStats struct {
	TotalTime       time.Duration
	ImagesProcessed int
	FailedImages    int
	EventsExtracted int
}

// Package output persists extracted events as JSON or YAML files.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spherical/calendar-extractor/internal/config"
	"github.com/spherical/calendar-extractor/internal/domain"
)

const defaultIndent = 2

var _ domain.ResultWriter = (*Writer)(nil)

// Writer writes results atomically in a fixed format. It satisfies
// domain.ResultWriter.
type Writer struct {
	format string // empty infers from the path
	indent int
	logger *domain.Logger
}

// NewWriter creates a writer. format is "json", "yaml" or "" to pick the
// format from each file's extension.
func NewWriter(format string, indent int) *Writer {
	if indent <= 0 {
		indent = defaultIndent
	}
	return &Writer{
		format: strings.ToLower(format),
		indent: indent,
		logger: domain.DefaultLogger().WithPrefix("output"),
	}
}

// FormatFor returns the format used for path: the configured one if set,
// otherwise yaml for .yaml/.yml files and json for everything else.
func FormatFor(path, configured string) string {
	if configured != "" {
		return strings.ToLower(configured)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return config.FormatYAML
	default:
		return config.FormatJSON
	}
}

// Extension returns the file extension matching a format.
func Extension(format string) string {
	if strings.ToLower(format) == config.FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// WriteEvents writes a single image's events as a top-level list.
func (w *Writer) WriteEvents(path string, events []domain.Event) error {
	if events == nil {
		events = []domain.Event{}
	}

	var (
		data []byte
		err  error
	)
	switch format := FormatFor(path, w.format); format {
	case config.FormatJSON:
		data, err = w.encodeJSON(events)
	case config.FormatYAML:
		data, err = w.encodeYAML(events)
	default:
		return domain.ValidationError(fmt.Sprintf("unsupported output format %q", format), nil)
	}
	if err != nil {
		return domain.IOError("Failed to encode events", err)
	}

	return w.writeAtomic(path, data)
}

// WriteBatch writes a batch as a mapping from image path to events, in the
// order the images were processed.
func (w *Writer) WriteBatch(path string, result *domain.BatchResult) error {
	if result == nil {
		result = domain.NewBatchResult()
	}

	var (
		data []byte
		err  error
	)
	switch format := FormatFor(path, w.format); format {
	case config.FormatJSON:
		data, err = w.encodeJSON(result)
	case config.FormatYAML:
		var node *yaml.Node
		if node, err = batchNode(result); err == nil {
			data, err = w.encodeYAML(node)
		}
	default:
		return domain.ValidationError(fmt.Sprintf("unsupported output format %q", format), nil)
	}
	if err != nil {
		return domain.IOError("Failed to encode batch result", err)
	}

	return w.writeAtomic(path, data)
}

func (w *Writer) encodeJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", strings.Repeat(" ", w.indent))
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (w *Writer) encodeYAML(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(w.indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// batchNode builds a YAML mapping whose keys keep insertion order.
func batchNode(result *domain.BatchResult) (*yaml.Node, error) {
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, entry := range result.Entries() {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: entry.Image}

		value := &yaml.Node{}
		if err := value.Encode(entry.Events); err != nil {
			return nil, fmt.Errorf("entry %q: %w", entry.Image, err)
		}
		root.Content = append(root.Content, key, value)
	}
	return root, nil
}

// writeAtomic replaces path with data via a temp file in the same directory.
// On failure the previous contents of path are left untouched.
func (w *Writer) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.IOError(fmt.Sprintf("Failed to create directory %s", dir), err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return domain.IOError(fmt.Sprintf("Failed to create temp file in %s", dir), err)
	}
	tmpPath := tmp.Name()

	fail := func(msg string, err error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return domain.IOError(msg, err)
	}

	if _, err := tmp.Write(data); err != nil {
		return fail("Failed to write results", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("Failed to sync results", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail("Failed to set file mode", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return domain.IOError("Failed to close results file", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return domain.IOError(fmt.Sprintf("Failed to save results to %s", path), err)
	}

	w.logger.Debug("Wrote %d bytes to %s", len(data), path)
	return nil
}

package interpret

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spherical/calendar-extractor/internal/domain"
)

// findArrayBounds returns the substring from the first '[' to the last ']'
// inclusive. ok is false when either bracket is missing or the closing one
// comes first.
func findArrayBounds(text string) (candidate string, ok bool) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// decodeEvents decodes a JSON array of event objects. Every element must be
// an object (null elements are skipped). Objects without a title are dropped.
func decodeEvents(candidate string) ([]domain.Event, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
		return nil, err
	}

	events := make([]domain.Event, 0, len(raw))
	for i, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || bytes.Equal(item, []byte("null")) {
			continue
		}
		if item[0] != '{' {
			return nil, fmt.Errorf("element %d is not an object", i)
		}

		var w wireEvent
		if err := json.Unmarshal(item, &w); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}

		ev := w.toEvent()
		if !ev.HasTitle() {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// wireEvent mirrors domain.Event with lenient field types; models routinely
// quote booleans or emit null for missing text.
type wireEvent struct {
	Title          flexString `json:"title"`
	Description    flexString `json:"description"`
	Date           flexString `json:"date"`
	Time           flexString `json:"time"`
	Repeating      flexBool   `json:"repeating"`
	RepeatSchedule flexString `json:"repeat_schedule"`
}

func (w wireEvent) toEvent() domain.Event {
	return domain.Event{
		Title:          string(w.Title),
		Description:    string(w.Description),
		Date:           string(w.Date),
		Time:           string(w.Time),
		Repeating:      bool(w.Repeating),
		RepeatSchedule: string(w.RepeatSchedule),
	}
}

// flexString accepts strings, numbers, booleans and null. Objects and arrays
// are kept as compact JSON text.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*s = ""
	case data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
	case data[0] == '{' || data[0] == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*s = flexString(buf.String())
	default:
		// numbers and booleans keep their literal spelling
		*s = flexString(data)
	}
	return nil
}

// flexBool accepts booleans, null, numbers (non-zero is true) and strings
// ("y", "1" or anything containing an affirmative token).
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*b = false
	case bytes.Equal(data, []byte("true")):
		*b = true
	case bytes.Equal(data, []byte("false")):
		*b = false
	case data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*b = flexBool(isTruthy(v))
	case data[0] == '{' || data[0] == '[':
		return fmt.Errorf("cannot use %s as repeating flag", data)
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("cannot use %s as repeating flag: %w", data, err)
		}
		*b = f != 0
	}
	return nil
}

// isAffirmative reports whether a free-text value answers "yes".
func isAffirmative(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	return strings.Contains(v, "yes") || strings.Contains(v, "true")
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "y", "1":
		return true
	}
	return isAffirmative(value)
}

package interpret

import "strings"

var fenceMarkers = []string{"```", "~~~"}

// stripFenceLines removes lines that consist only of a code-fence delimiter,
// optionally tagged with a language (```json, ~~~yaml).
func stripFenceLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if isFenceLine(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func isFenceLine(line string) bool {
	t := strings.TrimSpace(line)
	for _, marker := range fenceMarkers {
		if !strings.HasPrefix(t, marker) {
			continue
		}
		rest := strings.TrimLeft(t, marker[:1])
		rest = strings.TrimSpace(strings.TrimRight(rest, marker[:1]))
		return isLanguageTag(rest)
	}
	return false
}

// isLanguageTag accepts an empty string or a single info-string token such as
// "json", "c++" or "objective-c".
func isLanguageTag(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '+' || r == '.' || r == '#':
		default:
			return false
		}
	}
	return true
}

package interpret

import (
	"strings"

	"github.com/spherical/calendar-extractor/internal/domain"
)

const separator = ":"

type field int

const (
	fieldTitle field = iota
	fieldDescription
	fieldDate
	fieldTime
	fieldRepeat
)

// Checked in this order; the first keyword that matches claims the line.
var fieldKeywords = []struct {
	field   field
	keyword string
}{
	{fieldTitle, "title"},
	{fieldDescription, "description"},
	{fieldDate, "date"},
	{fieldTime, "time"},
	{fieldRepeat, "repeat"},
}

// fieldLine is a recognised "label: value" line.
type fieldLine struct {
	field field
	label string // text before the first separator
	value string // trimmed text after the first separator
}

// classifyLine matches a line against the field keywords. A keyword only
// counts when a separator follows it somewhere on the line.
func classifyLine(line string) (fieldLine, bool) {
	lower := strings.ToLower(line)
	for _, fk := range fieldKeywords {
		idx := strings.Index(lower, fk.keyword)
		if idx < 0 || !strings.Contains(lower[idx+len(fk.keyword):], separator) {
			continue
		}
		sep := strings.Index(line, separator)
		if sep < 0 {
			return fieldLine{}, false
		}
		return fieldLine{
			field: fk.field,
			label: line[:sep],
			value: strings.TrimSpace(line[sep+len(separator):]),
		}, true
	}
	return fieldLine{}, false
}

// parseFieldLines recovers events from "Label: value" text. A title line
// closes the current event when it already has a title; fields seen before
// any title stay with the event that eventually receives one. Events that
// never get a title are dropped.
func parseFieldLines(text string) []domain.Event {
	events := []domain.Event{}
	var current domain.Event

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		fl, ok := classifyLine(line)
		if !ok {
			continue
		}

		switch fl.field {
		case fieldTitle:
			if current.HasTitle() {
				events = append(events, current)
				current = domain.Event{}
			}
			current.Title = fl.value
		case fieldDescription:
			current.Description = fl.value
		case fieldDate:
			current.Date = fl.value
		case fieldTime:
			current.Time = fl.value
		case fieldRepeat:
			current.Repeating = isAffirmative(fl.value)
			if strings.Contains(strings.ToLower(fl.label), "schedule") {
				current.RepeatSchedule = fl.value
			}
		}
	}

	if current.HasTitle() {
		events = append(events, current)
	}
	return events
}

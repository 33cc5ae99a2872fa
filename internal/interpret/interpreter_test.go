package interpret

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/calendar-extractor/internal/domain"
)

const cleanArray = `[
  {"title": "Team Meeting", "description": "Weekly sync", "date": "2023-04-15", "time": "10:00", "repeating": true, "repeat_schedule": "weekly"},
  {"title": "Dentist", "description": "", "date": "2023-04-20", "time": "14:30", "repeating": false, "repeat_schedule": ""}
]`

var cleanEvents = []domain.Event{
	{Title: "Team Meeting", Description: "Weekly sync", Date: "2023-04-15", Time: "10:00", Repeating: true, RepeatSchedule: "weekly"},
	{Title: "Dentist", Date: "2023-04-20", Time: "14:30"},
}

func TestAnalyze_Stages(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		want      []domain.Event
		wantStage Stage
	}{
		{
			name:      "clean array",
			response:  cleanArray,
			want:      cleanEvents,
			wantStage: StageDirect,
		},
		{
			name:      "array surrounded by commentary",
			response:  "Sure! Here are the events I found:\n" + cleanArray + "\nLet me know if you need more.",
			want:      cleanEvents,
			wantStage: StageDirect,
		},
		{
			name:      "fenced array",
			response:  "```json\n" + cleanArray + "\n```",
			want:      cleanEvents,
			wantStage: StageDirect,
		},
		{
			name:      "fence lines inside the brackets",
			response:  "[\n```json\n{\"title\": \"Standup\", \"date\": \"Mon\"}\n```\n]",
			want:      []domain.Event{{Title: "Standup", Date: "Mon"}},
			wantStage: StageFenceStripped,
		},
		{
			name:      "tilde fence inside the brackets",
			response:  "[\n~~~\n{\"title\": \"Standup\"}\n~~~\n]",
			want:      []domain.Event{{Title: "Standup"}},
			wantStage: StageFenceStripped,
		},
		{
			name:      "empty array",
			response:  "[]",
			want:      []domain.Event{},
			wantStage: StageDirect,
		},
		{
			name:      "labelled lines",
			response:  "Title: Team Meeting\nDate: 2023-04-15",
			want:      []domain.Event{{Title: "Team Meeting", Date: "2023-04-15"}},
			wantStage: StageHeuristic,
		},
		{
			name:      "malformed array falls back to the full text",
			response:  "[{\"name\": \"Broken\",}\nTitle: Recovered\nTime: 9am ]",
			want:      []domain.Event{{Title: "Recovered", Time: "9am ]"}},
			wantStage: StageHeuristic,
		},
		{
			name:      "nothing recognisable",
			response:  "I could not find any events in this image.",
			want:      []domain.Event{},
			wantStage: StageNone,
		},
		{
			name:      "empty input",
			response:  "",
			want:      []domain.Event{},
			wantStage: StageNone,
		},
		{
			name:      "whitespace input",
			response:  "  \n\t\n ",
			want:      []domain.Event{},
			wantStage: StageNone,
		},
	}

	interp := New(Options{Logger: domain.NopLogger()})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := interp.Analyze(tt.response)
			require.NotNil(t, res.Events)
			assert.Equal(t, tt.want, res.Events)
			assert.Equal(t, tt.wantStage, res.Stage)
		})
	}
}

func TestInterpret_FencedEqualsUnwrapped(t *testing.T) {
	fenced := []string{
		"```json\n" + cleanArray + "\n```",
		"```\n" + cleanArray + "\n```",
		"~~~json\n" + cleanArray + "\n~~~",
		"  ```JSON  \n" + cleanArray + "\n  ```  ",
	}
	want := Interpret(cleanArray)
	for _, f := range fenced {
		assert.Equal(t, want, Interpret(f))
	}
}

func TestInterpret_HeuristicBoundaries(t *testing.T) {
	t.Run("consecutive titles", func(t *testing.T) {
		got := Interpret("Title: A\nTitle: B")
		assert.Equal(t, []domain.Event{{Title: "A"}, {Title: "B"}}, got)
	})

	t.Run("fields before the first title stay with it", func(t *testing.T) {
		got := Interpret("Date: Friday\nTime: 18:00\nTitle: Dinner\nTitle: Movie\nTime: 21:00")
		assert.Equal(t, []domain.Event{
			{Title: "Dinner", Date: "Friday", Time: "18:00"},
			{Title: "Movie", Time: "21:00"},
		}, got)
	})

	t.Run("value split at the first separator", func(t *testing.T) {
		got := Interpret("Title: Call: quarterly review\nTime: 10:30 - 11:00")
		require.Len(t, got, 1)
		assert.Equal(t, "Call: quarterly review", got[0].Title)
		assert.Equal(t, "10:30 - 11:00", got[0].Time)
	})

	t.Run("keyword without a separator is ignored", func(t *testing.T) {
		got := Interpret("The title is missing\nTitle: Real")
		assert.Equal(t, []domain.Event{{Title: "Real"}}, got)
	})

	t.Run("case insensitive labels", func(t *testing.T) {
		got := Interpret("**TITLE**: Launch\n- description: Product launch party")
		assert.Equal(t, []domain.Event{{Title: "Launch", Description: "Product launch party"}}, got)
	})

	t.Run("untitled fields are dropped", func(t *testing.T) {
		got := Interpret("Date: 2024-01-01\nTime: noon")
		assert.Empty(t, got)
		assert.NotNil(t, got)
	})

	t.Run("empty title does not open a record", func(t *testing.T) {
		got := Interpret("Title:\nDate: today\nTitle: Later")
		assert.Equal(t, []domain.Event{{Title: "Later", Date: "today"}}, got)
	})
}

func TestInterpret_Repeat(t *testing.T) {
	tests := []struct {
		name         string
		response     string
		wantRepeat   bool
		wantSchedule string
	}{
		{
			name:         "schedule label captures value",
			response:     "Title: Yoga\nRepeat schedule: Yes, every Tuesday",
			wantRepeat:   true,
			wantSchedule: "Yes, every Tuesday",
		},
		{
			name:       "plain repeat flag",
			response:   "Title: Yoga\nRepeating: true",
			wantRepeat: true,
		},
		{
			name:     "negative answer",
			response: "Title: Yoga\nRepeats: No",
		},
		{
			name:         "schedule label with negative answer",
			response:     "Title: Yoga\nRepeat schedule: none",
			wantSchedule: "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Interpret(tt.response)
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantRepeat, got[0].Repeating)
			assert.Equal(t, tt.wantSchedule, got[0].RepeatSchedule)
		})
	}
}

func TestInterpret_FieldPrecedence(t *testing.T) {
	// "date" is checked before "time", so a line mentioning both is a date.
	got := Interpret("Title: Expo\nDate and time: March 3 at 9am")
	require.Len(t, got, 1)
	assert.Equal(t, "March 3 at 9am", got[0].Date)
	assert.Empty(t, got[0].Time)
}

func TestInterpret_LenientDecode(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     []domain.Event
	}{
		{
			name:     "missing fields default",
			response: `[{"title": "Only a title"}]`,
			want:     []domain.Event{{Title: "Only a title"}},
		},
		{
			name:     "null fields",
			response: `[{"title": "Nulls", "description": null, "repeating": null, "repeat_schedule": null}]`,
			want:     []domain.Event{{Title: "Nulls"}},
		},
		{
			name:     "quoted boolean",
			response: `[{"title": "Gym", "repeating": "Yes"}]`,
			want:     []domain.Event{{Title: "Gym", Repeating: true}},
		},
		{
			name:     "short affirmatives",
			response: `[{"title": "A", "repeating": "y"}, {"title": "B", "repeating": " 1 "}, {"title": "C", "repeating": "no"}]`,
			want:     []domain.Event{{Title: "A", Repeating: true}, {Title: "B", Repeating: true}, {Title: "C"}},
		},
		{
			name:     "numeric fields",
			response: `[{"title": "Room", "time": 1400, "repeating": 1}]`,
			want:     []domain.Event{{Title: "Room", Time: "1400", Repeating: true}},
		},
		{
			name:     "untitled objects are dropped",
			response: `[{"title": ""}, {"date": "2024-02-02"}, {"title": "Kept"}]`,
			want:     []domain.Event{{Title: "Kept"}},
		},
		{
			name:     "null elements are skipped",
			response: `[null, {"title": "Kept"}]`,
			want:     []domain.Event{{Title: "Kept"}},
		},
		{
			name:     "unknown fields are ignored",
			response: `[{"title": "Extra", "location": "HQ"}]`,
			want:     []domain.Event{{Title: "Extra"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Interpret(tt.response))
		})
	}
}

func TestInterpret_NonObjectArrayFallsBack(t *testing.T) {
	res := New(Options{Logger: domain.NopLogger()}).Analyze(`["a", "b"]`)
	assert.Equal(t, StageNone, res.Stage)
	assert.Empty(t, res.Events)
}

func TestInterpret_Idempotent(t *testing.T) {
	responses := []string{
		cleanArray,
		"```json\n" + cleanArray + "\n```",
		"Title: A\nDate: B\nTitle: C",
		"garbage",
	}
	for _, r := range responses {
		assert.Equal(t, Interpret(r), Interpret(r))
	}
}

func TestInterpret_RoundTrip(t *testing.T) {
	data, err := json.Marshal(cleanEvents)
	require.NoError(t, err)
	assert.Equal(t, cleanEvents, Interpret(string(data)))
}

func TestAnalyze_RepairJSON(t *testing.T) {
	broken := "[{\"title\": \"Trailing comma\", \"date\": \"today\",},]"

	off := New(Options{Logger: domain.NopLogger()}).Analyze(broken)
	assert.NotEqual(t, StageRepaired, off.Stage)

	on := New(Options{RepairJSON: true, Logger: domain.NopLogger()}).Analyze(broken)
	assert.Equal(t, StageRepaired, on.Stage)
	assert.Equal(t, []domain.Event{{Title: "Trailing comma", Date: "today"}}, on.Events)
}

func TestIsFenceLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"```", true},
		{"```json", true},
		{"  ``` ", true},
		{"~~~yaml", true},
		{"````", true},
		{"```json {\"a\":1}", false},
		{"``inline``", false},
		{"text ```", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isFenceLine(tt.line), "line %q", tt.line)
	}
}

func TestFindArrayBounds(t *testing.T) {
	got, ok := findArrayBounds("noise [1, [2]] tail")
	require.True(t, ok)
	assert.Equal(t, "[1, [2]]", got)

	_, ok = findArrayBounds("] before [")
	assert.False(t, ok)

	_, ok = findArrayBounds("no brackets")
	assert.False(t, ok)
}

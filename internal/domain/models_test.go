package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestEvent_HasTitle(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"Standup", true},
		{"", false},
		{"   ", false},
		{"\t\n", false},
		{" x ", true},
	}

	for _, tt := range tests {
		if got := (Event{Title: tt.title}).HasTitle(); got != tt.want {
			t.Errorf("HasTitle(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}

func TestEvent_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(Event{Title: "Gym", Repeating: true, RepeatSchedule: "weekly"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	want := `{"title":"Gym","description":"","date":"","time":"","repeating":true,"repeat_schedule":"weekly"}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}
}

func TestBatchResult_Order(t *testing.T) {
	b := NewBatchResult()
	b.Set("z.png", []Event{{Title: "Z"}})
	b.Set("a.png", nil)
	b.Set("m.png", []Event{{Title: "M1"}, {Title: "M2"}})

	if got, want := b.Images(), []string{"z.png", "a.png", "m.png"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Images() = %v, want %v", got, want)
	}
	if b.Len() != 3 {
		t.Errorf("Len() = %d, want 3", b.Len())
	}
	if b.TotalEvents() != 3 {
		t.Errorf("TotalEvents() = %d, want 3", b.TotalEvents())
	}

	events, ok := b.Get("a.png")
	if !ok || events == nil || len(events) != 0 {
		t.Errorf("Get(a.png) = %v, %v; want empty non-nil slice", events, ok)
	}
	if _, ok := b.Get("missing.png"); ok {
		t.Error("Get(missing.png) reported a value")
	}
}

func TestBatchResult_SetReplacesInPlace(t *testing.T) {
	b := NewBatchResult()
	b.Set("a.png", []Event{{Title: "old"}})
	b.Set("b.png", nil)
	b.Set("a.png", []Event{{Title: "new"}})

	if got, want := b.Images(), []string{"a.png", "b.png"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Images() = %v, want %v", got, want)
	}
	events, _ := b.Get("a.png")
	if len(events) != 1 || events[0].Title != "new" {
		t.Errorf("Get(a.png) = %v, want the replacement", events)
	}
}

func TestBatchResult_ZeroValue(t *testing.T) {
	var b BatchResult
	b.Set("a.png", nil)
	if b.Len() != 1 {
		t.Errorf("Len() = %d, want 1", b.Len())
	}
}

func TestBatchResult_MarshalJSON(t *testing.T) {
	b := NewBatchResult()
	b.Set("week 2.png", []Event{{Title: "Dentist", Time: "14:00"}})
	b.Set("blank.png", nil)

	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	want := `{"week 2.png":[{"title":"Dentist","description":"","date":"","time":"14:00","repeating":false,"repeat_schedule":""}],"blank.png":[]}`
	if string(data) != want {
		t.Errorf("Marshal =\n%s\nwant\n%s", data, want)
	}

	empty, err := json.Marshal(NewBatchResult())
	if err != nil {
		t.Fatalf("Marshal empty: %v", err)
	}
	if string(empty) != "{}" {
		t.Errorf("Marshal empty = %s, want {}", empty)
	}
}

func TestBatchResult_UnmarshalJSON(t *testing.T) {
	input := `{"c.png": [{"title": "C"}], "a.png": [], "b.png": null}`

	var b BatchResult
	if err := json.Unmarshal([]byte(input), &b); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got, want := b.Images(), []string{"c.png", "a.png", "b.png"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Images() = %v, want %v", got, want)
	}

	again, err := json.Marshal(&b)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var round BatchResult
	if err := json.Unmarshal(again, &round); err != nil {
		t.Fatalf("Unmarshal round trip: %v", err)
	}
	if !reflect.DeepEqual(round.Entries(), b.Entries()) {
		t.Errorf("round trip changed entries: %v vs %v", round.Entries(), b.Entries())
	}
}

func TestBatchResult_UnmarshalJSON_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"array", `[{"title": "x"}]`},
		{"bad entry", `{"a.png": "nope"}`},
		{"truncated", `{"a.png": [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b BatchResult
			if err := json.Unmarshal([]byte(tt.input), &b); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

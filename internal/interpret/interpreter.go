// Package interpret turns free-form language model output into calendar
// events. It never fails: a response that cannot be understood yields an
// empty, non-nil slice.
package interpret

import (
	"fmt"

	"github.com/kaptinlin/jsonrepair"

	"github.com/spherical/calendar-extractor/internal/domain"
)

// Stage names the step that produced a result.
type Stage string

const (
	StageNone          Stage = "none"
	StageDirect        Stage = "direct"
	StageFenceStripped Stage = "fence_stripped"
	StageRepaired      Stage = "repaired"
	StageHeuristic     Stage = "heuristic"
)

// Result is the outcome of interpreting one response.
type Result struct {
	Events []domain.Event
	Stage  Stage
}

// Options configures an Interpreter.
type Options struct {
	// RepairJSON enables a jsonrepair pass between fence stripping and the
	// line heuristic.
	RepairJSON bool
	Logger     *domain.Logger
}

// Interpreter runs the decode pipeline over model responses.
type Interpreter struct {
	repairJSON bool
	logger     *domain.Logger
}

// New creates an Interpreter.
func New(opts Options) *Interpreter {
	logger := opts.Logger
	if logger == nil {
		logger = domain.DefaultLogger()
	}
	return &Interpreter{
		repairJSON: opts.RepairJSON,
		logger:     logger.WithPrefix("interpret"),
	}
}

// Interpret returns the events found in response.
func (i *Interpreter) Interpret(response string) []domain.Event {
	return i.Analyze(response).Events
}

// Analyze is Interpret plus the stage that produced the events.
func (i *Interpreter) Analyze(response string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			i.logger.WithErr(fmt.Errorf("%v", r)).Error("Recovered while interpreting response")
			res = Result{Events: []domain.Event{}, Stage: StageNone}
		}
	}()

	if candidate, ok := findArrayBounds(response); ok {
		events, err := decodeEvents(candidate)
		if err == nil {
			return Result{Events: events, Stage: StageDirect}
		}
		i.logger.Debug("Direct decode failed: %v", err)

		stripped := stripFenceLines(candidate)
		if events, err := decodeEvents(stripped); err == nil {
			return Result{Events: events, Stage: StageFenceStripped}
		}

		if i.repairJSON {
			if events, ok := i.decodeRepaired(stripped); ok {
				return Result{Events: events, Stage: StageRepaired}
			}
		}
		i.logger.Debug("Structured decode failed, falling back to field lines")
	}

	events := parseFieldLines(response)
	if len(events) == 0 {
		return Result{Events: events, Stage: StageNone}
	}
	return Result{Events: events, Stage: StageHeuristic}
}

func (i *Interpreter) decodeRepaired(candidate string) ([]domain.Event, bool) {
	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		i.logger.Debug("JSON repair failed: %v", err)
		return nil, false
	}
	events, err := decodeEvents(repaired)
	if err != nil {
		i.logger.Debug("Repaired payload still undecodable: %v", err)
		return nil, false
	}
	return events, true
}

var std = &Interpreter{logger: domain.NopLogger()}

// Interpret runs the default pipeline (no repair pass, no logging).
func Interpret(response string) []domain.Event {
	return std.Interpret(response)
}

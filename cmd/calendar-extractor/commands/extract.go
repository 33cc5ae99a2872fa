package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/spherical/calendar-extractor/cmd/calendar-extractor/ui"
	"github.com/spherical/calendar-extractor/internal/config"
	"github.com/spherical/calendar-extractor/internal/domain"
	"github.com/spherical/calendar-extractor/internal/extract"
	"github.com/spherical/calendar-extractor/internal/interpret"
	"github.com/spherical/calendar-extractor/internal/llm"
	"github.com/spherical/calendar-extractor/internal/metrics"
	"github.com/spherical/calendar-extractor/internal/ocr"
	"github.com/spherical/calendar-extractor/internal/output"
)

// runSummary is what the event stream told us about a run.
type runSummary struct {
	stats    domain.ProcessingStats
	failures map[string]string // image -> error message
}

func runExtract(cmd *cobra.Command, args []string) error {
	ui.InitUI(noColor, verbose)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	domain.SetDefaultLogger(logger)
	runID := uuid.New().String()
	logger = logger.With("run_id", runID)

	inputs, skipped, err := collectInputs(args, inputDir)
	for _, path := range skipped {
		ui.Warning("Skipping %s: not a readable file", path)
	}
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no input images found (pass image paths or --dir)")
	}

	batch := isBatch(inputs, inputDir)
	out := outputPath
	if out == "" {
		out = defaultOutputPath(inputs, inputDir, cfg.Output.Format)
	}

	lm, err := llm.New(cfg.LLM)
	if err != nil {
		return err
	}

	tess := ocr.NewTesseract(ocrOptions(cfg, logger))
	if !tess.Available() {
		ui.Warning("%s not found on PATH; no text can be extracted", cfg.OCR.Command)
	}

	m := metrics.New()
	m.SetRunInfo(runID, cfg.LLM.Provider, cfg.LLM.Model)

	svc := extract.NewService(tess, lm, extract.Options{
		Model:       cfg.LLM.Model,
		OCRTimeout:  cfg.OCR.Timeout,
		LLMTimeout:  cfg.LLM.Timeout,
		Interpreter: interpret.New(interpret.Options{RepairJSON: cfg.Interpret.RepairJSON, Logger: logger}),
		Metrics:     m,
		Logger:      logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui.Section("Calendar Extraction")
	ui.KeyValue("Images", strconv.Itoa(len(inputs)))
	ui.KeyValue("Model", fmt.Sprintf("%s (%s)", cfg.LLM.Model, cfg.LLM.Provider))
	ui.KeyValue("Output", out)
	ui.Newline()

	var (
		result  *domain.BatchResult
		summary runSummary
	)
	if batch {
		result, summary = runWithProgress(ctx, svc, inputs)
	} else {
		result, summary = runWithSpinner(ctx, svc, inputs[0])
	}

	writer := output.NewWriter(cfg.Output.Format, cfg.Output.Indent)
	if batch {
		err = writer.WriteBatch(out, result)
	} else {
		events, _ := result.Get(inputs[0])
		err = writer.WriteEvents(out, events)
	}
	if err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	printSummary(result, summary, batch, cfg)
	ui.Success("Results saved to: %s", out)

	if cfg.Metrics.File != "" {
		if err := m.WriteTextfile(cfg.Metrics.File); err != nil {
			ui.Warning("Could not write metrics: %v", err)
		}
	}

	if ctx.Err() != nil {
		return fmt.Errorf("interrupted after %d of %d images", result.Len(), len(inputs))
	}
	return nil
}

// modelMissing reports whether any image failed because the model does not
// exist. Stream events carry error text only.
func (s runSummary) modelMissing() bool {
	for _, msg := range s.failures {
		if strings.Contains(msg, domain.ErrModelNotFound.Error()) {
			return true
		}
	}
	return false
}

// runWithProgress processes a batch while a progress bar follows the event
// stream. Without a terminal, or with --verbose, each image gets a line
// instead.
func runWithProgress(ctx context.Context, svc *extract.Service, inputs []string) (*domain.BatchResult, runSummary) {
	if verbose || !ui.IsTerminal() {
		return runStreaming(ctx, svc, inputs, func(ev domain.StreamEvent) {
			switch ev.Type {
			case domain.EventImageComplete:
				ui.Message("[%d/%d] %s: %v events", ev.Index, ev.Total, ev.Image, ev.Payload)
			case domain.EventError:
				if ev.Image != "" {
					ui.Warning("%s: %v", ev.Image, ev.Payload)
				}
			}
		})
	}

	bar := ui.NewProgressBar(int64(len(inputs)), "Extracting")
	return runStreaming(ctx, svc, inputs, func(ev domain.StreamEvent) {
		switch ev.Type {
		case domain.EventImageProcessing:
			bar.Describe(fmt.Sprintf("[%d/%d] %s", ev.Index, ev.Total, ev.Image))
		case domain.EventImageComplete:
			bar.Set(int64(ev.Index))
		case domain.EventError:
			bar.Clear()
			if ev.Image != "" {
				ui.Warning("%s: %v", ev.Image, ev.Payload)
			}
		case domain.EventComplete:
			bar.Set(int64(len(inputs)))
			bar.Finish()
		}
	})
}

// runWithSpinner processes a single image behind a spinner.
func runWithSpinner(ctx context.Context, svc *extract.Service, input string) (*domain.BatchResult, runSummary) {
	spinner := ui.NewSpinner(fmt.Sprintf("Reading text from %s...", input))
	spinner.Start()

	result, summary := runStreaming(ctx, svc, []string{input}, func(ev domain.StreamEvent) {
		if ev.Type == domain.EventOCRComplete {
			spinner.UpdateMessage("Asking the model for events...")
		}
	})
	spinner.Stop()

	if msg, failed := summary.failures[input]; failed {
		ui.Warning("Model call failed: %s", msg)
	}
	return result, summary
}

// runStreaming runs the batch and feeds every stream event to onEvent from a
// single consumer goroutine.
func runStreaming(ctx context.Context, svc *extract.Service, inputs []string, onEvent func(domain.StreamEvent)) (*domain.BatchResult, runSummary) {
	eventCh := make(chan domain.StreamEvent, 4*len(inputs)+8)
	summary := runSummary{failures: make(map[string]string)}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range eventCh {
			switch ev.Type {
			case domain.EventError:
				if ev.Image != "" {
					summary.failures[ev.Image] = fmt.Sprint(ev.Payload)
				}
			case domain.EventComplete:
				if stats, ok := ev.Payload.(domain.ProcessingStats); ok {
					summary.stats = stats
				}
			}
			onEvent(ev)
		}
	}()

	result := svc.ProcessBatch(ctx, inputs, eventCh)
	close(eventCh)
	<-done

	return result, summary
}

func printSummary(result *domain.BatchResult, summary runSummary, batch bool, cfg *config.Config) {
	ui.Section("Summary")
	ui.Message("Found %d events in %s", result.TotalEvents(), ui.FormatDuration(summary.stats.TotalTime))

	if batch {
		rows := make([][]string, 0, result.Len())
		for _, entry := range result.Entries() {
			rows = append(rows, []string{entry.Image, strconv.Itoa(len(entry.Events)), imageStatus(entry, summary)})
		}
		ui.Newline()
		ui.Table([]string{"Image", "Events", "Status"}, rows)
	}

	if summary.modelMissing() {
		ui.Info("Model %q was not found; for Ollama run: ollama pull %s", cfg.LLM.Model, cfg.LLM.Model)
	}

	if example, ok := firstEvent(result); ok {
		data, err := json.MarshalIndent(example, "", "  ")
		if err == nil {
			ui.Newline()
			ui.Message("Example event:")
			ui.Block(string(data))
		}
	}
	ui.Newline()
}

func imageStatus(entry domain.BatchEntry, summary runSummary) string {
	if _, failed := summary.failures[entry.Image]; failed {
		return "failed"
	}
	if len(entry.Events) == 0 {
		return "no events"
	}
	return "ok"
}

func firstEvent(result *domain.BatchResult) (domain.Event, bool) {
	for _, entry := range result.Entries() {
		if len(entry.Events) > 0 {
			return entry.Events[0], true
		}
	}
	return domain.Event{}, false
}

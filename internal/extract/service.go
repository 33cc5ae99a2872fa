// Package extract runs the image -> OCR -> model -> events pipeline over one
// image or a batch of them.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spherical/calendar-extractor/internal/domain"
	"github.com/spherical/calendar-extractor/internal/interpret"
	"github.com/spherical/calendar-extractor/internal/llm"
	"github.com/spherical/calendar-extractor/internal/metrics"
)

const (
	defaultOCRTimeout = 60 * time.Second
	defaultLLMTimeout = 2 * time.Minute
)

// Options configures a Service.
type Options struct {
	Model       string
	OCRTimeout  time.Duration
	LLMTimeout  time.Duration
	Interpreter *interpret.Interpreter
	Metrics     *metrics.Metrics // nil disables metrics
	Logger      *domain.Logger
}

// Service orchestrates calendar event extraction
type Service struct {
	ocr     domain.TextSource
	llm     domain.LMClient
	interp  *interpret.Interpreter
	metrics *metrics.Metrics
	opts    Options
	logger  *domain.Logger
}

// NewService creates a new extraction service
func NewService(ocr domain.TextSource, lm domain.LMClient, opts Options) *Service {
	if opts.OCRTimeout <= 0 {
		opts.OCRTimeout = defaultOCRTimeout
	}
	if opts.LLMTimeout <= 0 {
		opts.LLMTimeout = defaultLLMTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = domain.DefaultLogger()
	}
	interp := opts.Interpreter
	if interp == nil {
		interp = interpret.New(interpret.Options{Logger: logger})
	}

	return &Service{
		ocr:     ocr,
		llm:     lm,
		interp:  interp,
		metrics: opts.Metrics,
		opts:    opts,
		logger:  logger.WithPrefix("extract"),
	}
}

// ProcessImage extracts the events of a single image. Missing OCR text is
// not an error and yields no events; a failed model call is returned.
func (s *Service) ProcessImage(ctx context.Context, imagePath string) ([]domain.Event, error) {
	events, _, err := s.processImage(ctx, imagePath, nil, 0, 0)
	return events, err
}

// processImage returns the events, the metrics status, and any model error.
func (s *Service) processImage(ctx context.Context, imagePath string, eventCh chan<- domain.StreamEvent, index, total int) ([]domain.Event, string, error) {
	text := s.recognize(ctx, imagePath)
	if strings.TrimSpace(text) == "" {
		s.logger.Warn("No text extracted from %s", imagePath)
		return []domain.Event{}, metrics.StatusNoText, nil
	}

	s.logger.Debug("OCR produced %d characters for %s", len(text), imagePath)
	s.emitEvent(eventCh, domain.StreamEvent{
		Type:      domain.EventOCRComplete,
		Image:     imagePath,
		Index:     index,
		Total:     total,
		Payload:   len(text),
		Timestamp: time.Now(),
	})

	response, err := s.complete(ctx, llm.BuildPrompt(text))
	if err != nil {
		return []domain.Event{}, metrics.StatusFailed, err
	}

	res := s.interp.Analyze(response)
	s.metrics.ObserveStage(string(res.Stage))
	s.logger.Debug("Interpreted %d events from %s (stage %s)", len(res.Events), imagePath, res.Stage)

	if len(res.Events) == 0 {
		return res.Events, metrics.StatusNoEvent, nil
	}
	return res.Events, metrics.StatusOK, nil
}

func (s *Service) recognize(ctx context.Context, imagePath string) string {
	ctx, cancel := context.WithTimeout(ctx, s.opts.OCRTimeout)
	defer cancel()

	start := time.Now()
	text := s.ocr.ExtractText(ctx, imagePath)
	s.metrics.ObserveOCR(time.Since(start))
	return text
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.LLMTimeout)
	defer cancel()

	start := time.Now()
	response, err := s.llm.Complete(ctx, prompt, s.opts.Model)
	s.metrics.ObserveLLM(time.Since(start))

	if err != nil {
		var de *domain.DomainError
		if !errors.As(err, &de) {
			err = domain.APIError("language model call failed", err)
		}
		return "", err
	}
	return response, nil
}

// ProcessBatch processes images one at a time in the order given. Every
// processed image gets exactly one entry; a failing image is recorded with no
// events and the batch moves on. Cancellation stops the loop and returns the
// partial result. The final EventComplete carries domain.ProcessingStats.
func (s *Service) ProcessBatch(ctx context.Context, imagePaths []string, eventCh chan<- domain.StreamEvent) *domain.BatchResult {
	startTime := time.Now()
	result := domain.NewBatchResult()
	total := len(imagePaths)
	stats := domain.ProcessingStats{}

	s.emitEvent(eventCh, domain.StreamEvent{
		Type:      domain.EventStart,
		Total:     total,
		Payload:   fmt.Sprintf("Starting extraction of %d images", total),
		Timestamp: time.Now(),
	})
	s.logger.Info("Processing %d images", total)

	for i, imagePath := range imagePaths {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("Batch cancelled after %d of %d images", i, total)
			s.emitError(eventCh, "", err)
			break
		}

		s.emitEvent(eventCh, domain.StreamEvent{
			Type:      domain.EventImageProcessing,
			Image:     imagePath,
			Index:     i + 1,
			Total:     total,
			Payload:   fmt.Sprintf("Processing %s", imagePath),
			Timestamp: time.Now(),
		})
		s.logger.Info("Processing image %d/%d: %s", i+1, total, imagePath)

		events, status, err := s.processImage(ctx, imagePath, eventCh, i+1, total)
		result.Set(imagePath, events)
		stats.ImagesProcessed++
		s.metrics.ObserveImage(status, len(events))

		if err != nil {
			stats.FailedImages++
			s.logger.Error("Failed to extract events from %s: %v", imagePath, err)
			s.emitError(eventCh, imagePath, err)
			continue
		}

		stats.EventsExtracted += len(events)
		s.emitEvent(eventCh, domain.StreamEvent{
			Type:      domain.EventImageComplete,
			Image:     imagePath,
			Index:     i + 1,
			Total:     total,
			Payload:   len(events),
			Timestamp: time.Now(),
		})
	}

	stats.TotalTime = time.Since(startTime)
	s.metrics.FinishRun(stats.TotalTime)
	s.emitEvent(eventCh, domain.StreamEvent{
		Type:      domain.EventComplete,
		Total:     total,
		Payload:   stats,
		Timestamp: time.Now(),
	})

	s.logger.Info("Extraction complete: %d images, %d failed, %d events",
		stats.ImagesProcessed, stats.FailedImages, stats.EventsExtracted)

	return result
}

// emitEvent safely emits an event to the channel
func (s *Service) emitEvent(eventCh chan<- domain.StreamEvent, event domain.StreamEvent) {
	if eventCh != nil {
		select {
		case eventCh <- event:
		default:
			s.logger.Warn("Event channel full, dropping event: %s", event.Type)
		}
	}
}

// emitError emits an error event
func (s *Service) emitError(eventCh chan<- domain.StreamEvent, imagePath string, err error) {
	s.emitEvent(eventCh, domain.StreamEvent{
		Type:      domain.EventError,
		Image:     imagePath,
		Payload:   err.Error(),
		Timestamp: time.Now(),
	})
}

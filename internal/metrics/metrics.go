// Package metrics records per-run Prometheus metrics. A CLI run has no
// scrape endpoint, so the registry is dumped to a node-exporter textfile.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "calendar_extractor"

// Image outcome labels.
const (
	StatusOK      = "ok"
	StatusNoText  = "no_text"
	StatusFailed  = "failed"
	StatusNoEvent = "no_events"
)

// Metrics holds the collectors for one run. All methods are safe on a nil
// receiver so callers can run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	images      *prometheus.CounterVec
	events      prometheus.Counter
	stages      *prometheus.CounterVec
	ocrDur      prometheus.Histogram
	llmDur      prometheus.Histogram
	lastRun     prometheus.Gauge
	runDuration prometheus.Gauge
	runInfo     *prometheus.GaugeVec
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.images = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "images_total",
		Help:      "Images processed, by outcome",
	}, []string{"status"})
	m.events = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_extracted_total",
		Help:      "Calendar events extracted across all images",
	})
	m.stages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "interpret_stage_total",
		Help:      "Model responses by the interpreter stage that decoded them",
	}, []string{"stage"})
	m.ocrDur = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ocr_duration_seconds",
		Help:      "Time spent in OCR per image",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})
	m.llmDur = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "llm_duration_seconds",
		Help:      "Time spent waiting for the language model per image",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	})
	m.lastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last run finished",
	})
	m.runDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of the last run",
	})
	m.runInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_info",
		Help:      "Run metadata; always 1",
	}, []string{"run_id", "provider", "model"})

	m.registry.MustRegister(
		m.images, m.events, m.stages, m.ocrDur, m.llmDur,
		m.lastRun, m.runDuration, m.runInfo,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// SetRunInfo records the run's identity.
func (m *Metrics) SetRunInfo(runID, provider, model string) {
	if m == nil {
		return
	}
	m.runInfo.WithLabelValues(runID, provider, model).Set(1)
}

// ObserveImage counts one processed image and its events.
func (m *Metrics) ObserveImage(status string, events int) {
	if m == nil {
		return
	}
	m.images.WithLabelValues(status).Inc()
	m.events.Add(float64(events))
}

// ObserveStage counts an interpreter outcome.
func (m *Metrics) ObserveStage(stage string) {
	if m == nil {
		return
	}
	m.stages.WithLabelValues(stage).Inc()
}

// ObserveOCR records an OCR duration.
func (m *Metrics) ObserveOCR(d time.Duration) {
	if m == nil {
		return
	}
	m.ocrDur.Observe(d.Seconds())
}

// ObserveLLM records a model call duration.
func (m *Metrics) ObserveLLM(d time.Duration) {
	if m == nil {
		return
	}
	m.llmDur.Observe(d.Seconds())
}

// FinishRun stamps the run's end time and wall time.
func (m *Metrics) FinishRun(d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Set(d.Seconds())
	m.lastRun.SetToCurrentTime()
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

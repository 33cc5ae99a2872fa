package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dump(t *testing.T, m *Metrics) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calendar.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestMetrics_Observe(t *testing.T) {
	m := New()

	m.ObserveImage(StatusOK, 3)
	m.ObserveImage(StatusOK, 2)
	m.ObserveImage(StatusFailed, 0)
	m.ObserveStage("direct")
	m.ObserveStage("heuristic")
	m.ObserveStage("direct")
	m.ObserveOCR(1500 * time.Millisecond)
	m.ObserveLLM(4 * time.Second)

	content := dump(t, m)
	assert.Contains(t, content, `calendar_extractor_images_total{status="ok"} 2`)
	assert.Contains(t, content, `calendar_extractor_images_total{status="failed"} 1`)
	assert.Contains(t, content, "calendar_extractor_events_extracted_total 5")
	assert.Contains(t, content, `calendar_extractor_interpret_stage_total{stage="direct"} 2`)
	assert.Contains(t, content, `calendar_extractor_interpret_stage_total{stage="heuristic"} 1`)
	assert.Contains(t, content, "calendar_extractor_ocr_duration_seconds_count 1")
	assert.Contains(t, content, `calendar_extractor_llm_duration_seconds_bucket{le="5"} 1`)
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.SetRunInfo("id", "ollama", "llama3")
		m.ObserveImage(StatusOK, 1)
		m.ObserveStage("direct")
		m.ObserveOCR(time.Second)
		m.ObserveLLM(time.Second)
		m.FinishRun(time.Second)
	})
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "never.prom")))
	assert.Nil(t, m.Registry())
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.SetRunInfo("run-123", "ollama", "llama3")
	m.ObserveImage(StatusNoText, 0)
	m.FinishRun(2 * time.Second)

	content := dump(t, m)
	assert.Contains(t, content, `calendar_extractor_images_total{status="no_text"} 1`)
	assert.Contains(t, content, `calendar_extractor_run_info{model="llama3",provider="ollama",run_id="run-123"} 1`)
	assert.Contains(t, content, "calendar_extractor_run_duration_seconds 2")
	assert.Contains(t, content, "# HELP calendar_extractor_events_extracted_total")
}

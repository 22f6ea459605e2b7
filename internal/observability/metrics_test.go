package observability

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsExposition(t *testing.T) {
	m := New()
	m.ObserveAPI("POST", "/api/quiz/from-images", 200, 120*time.Millisecond)
	m.ObserveAPI("POST", "/api/quiz/from-images", 200, 80*time.Millisecond)
	m.ObserveLLM("quiz_generation", errors.New("timeout"), 2*time.Second)
	m.ObserveOCRImage("text")
	m.ObserveTTS("quota")
	m.ObserveGrading(true)

	var buf bytes.Buffer
	require.NoError(t, m.WritePrometheus(&buf))
	out := buf.String()

	assert.Contains(t, out, `smartstudy_api_requests_total{method="POST",route="/api/quiz/from-images",status="200"} 2.000000`)
	assert.Contains(t, out, `smartstudy_api_request_seconds_bucket{method="POST",route="/api/quiz/from-images",le="0.1"} 1`)
	assert.Contains(t, out, `smartstudy_api_request_seconds_bucket{method="POST",route="/api/quiz/from-images",le="+Inf"} 2`)
	assert.Contains(t, out, `smartstudy_llm_requests_total{operation="quiz_generation",status="error"} 1.000000`)
	assert.Contains(t, out, `smartstudy_tts_requests_total{outcome="quota"} 1.000000`)
	assert.Contains(t, out, `smartstudy_quiz_attempts_graded_total{result="passed"} 1.000000`)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", 200, time.Millisecond)
	m.ObserveLLM("x", nil, time.Millisecond)
	m.APIInflightInc()
	assert.NoError(t, m.WritePrometheus(&bytes.Buffer{}))
}

func TestLabelEscaping(t *testing.T) {
	c := NewCounterVec("c", "h", []string{"k"})
	c.Inc(`a"b`)
	assert.Equal(t, 1.0, c.Value(`a"b`))
	var buf bytes.Buffer
	require.NoError(t, c.WritePrometheus(&buf))
	assert.Contains(t, buf.String(), `c{k="a\"b"} 1.000000`)
}

package observability

import (
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/yungbote/smartstudy-backend/internal/platform/envutil"
)

// Metrics is a small Prometheus text-format registry for the API process.
type Metrics struct {
	apiRequests  *CounterVec
	apiLatency   *HistogramVec
	apiInflight  *Gauge
	llmRequests  *CounterVec
	llmLatency   *HistogramVec
	ocrImages    *CounterVec
	ttsRequests  *CounterVec
	quizAttempts *CounterVec
}

var llmBuckets = []float64{0.5, 1, 2, 5, 10, 20, 40, 60}

var (
	metricsOnce sync.Once
	instance    *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", true)
}

// Current returns the process registry, or nil when metrics are disabled.
func Current() *Metrics {
	if !Enabled() {
		return nil
	}
	return Init()
}

func Init() *Metrics {
	metricsOnce.Do(func() {
		instance = New()
	})
	return instance
}

func New() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("smartstudy_api_requests_total", "HTTP requests by method, route, status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("smartstudy_api_request_seconds", "HTTP request latency.", []string{"method", "route"}, nil),
		apiInflight: NewGauge("smartstudy_api_inflight", "In-flight HTTP requests."),
		llmRequests: NewCounterVec("smartstudy_llm_requests_total", "LLM calls by operation and status.", []string{"operation", "status"}),
		llmLatency:  NewHistogramVec("smartstudy_llm_request_seconds", "LLM call latency.", []string{"operation"}, llmBuckets),

		ocrImages:    NewCounterVec("smartstudy_ocr_images_total", "OCR'd images by outcome.", []string{"outcome"}),
		ttsRequests:  NewCounterVec("smartstudy_tts_requests_total", "Audio synthesis requests by outcome.", []string{"outcome"}),
		quizAttempts: NewCounterVec("smartstudy_quiz_attempts_graded_total", "Graded quiz attempts by result.", []string{"result"}),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.llmRequests, m.llmLatency,
		m.ocrImages, m.ttsRequests, m.quizAttempts,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.Inc(method, route, strconv.Itoa(status))
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveLLM(operation string, err error, dur time.Duration) {
	if m == nil {
		return
	}
	m.llmRequests.Inc(operation, outcome(err))
	m.llmLatency.Observe(dur.Seconds(), operation)
}

// ObserveOCRImage counts one image as "text", "empty" or "failed".
func (m *Metrics) ObserveOCRImage(result string) {
	if m == nil {
		return
	}
	m.ocrImages.Inc(result)
}

// ObserveTTS counts one synthesis decision as "ok", "failed", "quota" or "disabled".
func (m *Metrics) ObserveTTS(result string) {
	if m == nil {
		return
	}
	m.ttsRequests.Inc(result)
}

func (m *Metrics) ObserveGrading(passed bool) {
	if m == nil {
		return
	}
	if passed {
		m.quizAttempts.Inc("passed")
		return
	}
	m.quizAttempts.Inc("failed")
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

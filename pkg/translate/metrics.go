package translate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Completion request metrics
	completionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ailocalize_completion_requests_total",
			Help: "Total number of chat-completion requests",
		},
		[]string{"engine", "status"},
	)

	completionRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ailocalize_completion_request_duration_seconds",
			Help:    "Duration of chat-completion requests in seconds",
			Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
		},
		[]string{"engine", "status"},
	)

	completionPromptSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ailocalize_completion_prompt_size_bytes",
			Help:    "Size of the user prompt sent to the model in bytes",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
		},
		[]string{"engine"},
	)

	completionResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ailocalize_completion_response_size_bytes",
			Help:    "Size of the completion text returned by the model in bytes",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
		},
		[]string{"engine"},
	)

	// Response parsing metrics
	parseBlocksDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ailocalize_parse_blocks_dropped_total",
			Help: "Completion blocks discarded by the bulk response parser",
		},
		[]string{"reason"},
	)

	parseFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ailocalize_parse_structured_fallbacks_total",
			Help: "Structured completions that were not a JSON object and fell back to block parsing",
		},
	)
)

// Drop reasons reported by the parser.
const (
	dropNoSeparator  = "no_separator"
	dropUnknownField = "unknown_field"
	dropUnsupported  = "unsupported_value"
)

// MetricsCollector records completion metrics for one engine.
type MetricsCollector struct {
	engine string
}

// NewMetricsCollector creates a metrics collector for an engine.
func NewMetricsCollector(engine EngineType) *MetricsCollector {
	return &MetricsCollector{engine: string(engine)}
}

// RecordCompletion records metrics for a completion request.
func (mc *MetricsCollector) RecordCompletion(duration time.Duration, success bool, promptSize, responseSize int) {
	status := "success"
	if !success {
		status = "error"
	}

	completionRequestsTotal.WithLabelValues(mc.engine, status).Inc()
	completionRequestDuration.WithLabelValues(mc.engine, status).Observe(duration.Seconds())
	completionPromptSize.WithLabelValues(mc.engine).Observe(float64(promptSize))
	if success {
		completionResponseSize.WithLabelValues(mc.engine).Observe(float64(responseSize))
	}
}

func recordDropped(reason string) {
	parseBlocksDropped.WithLabelValues(reason).Inc()
}

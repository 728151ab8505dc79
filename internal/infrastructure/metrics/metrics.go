package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Chat API metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "genai",
			Subsystem: "chat_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "genai",
			Subsystem: "chat_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Chat turn counters
	ChatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "genai",
			Subsystem: "chat_api",
			Name:      "chat_turns_total",
			Help:      "Completed chat turns by outcome",
		},
		[]string{"model", "status"},
	)

	// Completion duration
	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "genai",
			Subsystem: "chat_api",
			Name:      "completion_duration_seconds",
			Help:      "Upstream completion call duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"model"},
	)

	// Token counters
	TokensPromptTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "genai",
			Subsystem: "chat_api",
			Name:      "tokens_prompt_total",
			Help:      "Total prompt tokens consumed",
		},
		[]string{"model"},
	)

	TokensCompletionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "genai",
			Subsystem: "chat_api",
			Name:      "tokens_completion_total",
			Help:      "Total completion tokens generated",
		},
		[]string{"model"},
	)

	// Upstream errors
	UpstreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "genai",
			Subsystem: "chat_api",
			Name:      "upstream_errors_total",
			Help:      "Upstream completion API failures",
		},
		[]string{"error_type"},
	)

	// Conversations
	ConversationsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "genai",
			Subsystem: "chat_api",
			Name:      "conversations_created_total",
			Help:      "Total conversations created",
		},
	)

	ConversationsPurgedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "genai",
			Subsystem: "chat_api",
			Name:      "conversations_purged_total",
			Help:      "Conversations removed by retention sweeps",
		},
	)

	// File extraction
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "genai",
			Subsystem: "chat_api",
			Name:      "extractions_total",
			Help:      "File extraction attempts by extension and outcome",
		},
		[]string{"extension", "status"},
	)

	// Upstream health gauge
	UpstreamHealth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "genai",
			Subsystem: "chat_api",
			Name:      "upstream_health",
			Help:      "Upstream API health status (1=healthy, 0=unhealthy)",
		},
	)
)

// RecordRequest records an HTTP request with its duration
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint, status).Observe(durationSec)
}

// RecordChatTurn records a completed chat turn
func RecordChatTurn(model, status string, durationSec float64) {
	if model == "" {
		model = "unknown"
	}
	ChatTurnsTotal.WithLabelValues(model, status).Inc()
	CompletionDuration.WithLabelValues(model).Observe(durationSec)
}

// RecordTokens records token usage for a completion
func RecordTokens(model string, promptTokens, completionTokens int) {
	TokensPromptTotal.WithLabelValues(model).Add(float64(promptTokens))
	TokensCompletionTotal.WithLabelValues(model).Add(float64(completionTokens))
}

// RecordExtraction records a file extraction attempt
func RecordExtraction(extension, status string) {
	if extension == "" {
		extension = "none"
	}
	ExtractionsTotal.WithLabelValues(extension, status).Inc()
}

// SetUpstreamHealth sets the upstream health gauge
func SetUpstreamHealth(healthy bool) {
	val := 0.0
	if healthy {
		val = 1.0
	}
	UpstreamHealth.Set(val)
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

// Chat model Prometheus metrics.
var (
	ChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "knowme",
			Name:      "chat_requests_total",
			Help:      "Total number of chat model requests",
		},
		[]string{"model", "status"},
	)

	ChatRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "knowme",
			Name:      "chat_request_duration_seconds",
			Help:      "Chat model request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	ChatTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "knowme",
			Name:      "chat_tokens_total",
			Help:      "Total chat model tokens consumed",
		},
		[]string{"model", "type"}, // "prompt" / "completion"
	)

	AgentToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "knowme",
			Name:      "agent_tool_calls_total",
			Help:      "Total router agent tool invocations",
		},
		[]string{"tool", "status"},
	)
)

var chatMetricsRegistered bool

// RegisterChatMetrics registers Prometheus chat metrics. Must be called once from main.
func RegisterChatMetrics() {
	if chatMetricsRegistered {
		return
	}
	prometheus.MustRegister(ChatRequestsTotal)
	prometheus.MustRegister(ChatRequestDuration)
	prometheus.MustRegister(ChatTokensTotal)
	prometheus.MustRegister(AgentToolCallsTotal)
	chatMetricsRegistered = true
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chatTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_chat_turns_total",
			Help: "Chat turns handled, by response type or failure",
		},
		[]string{"outcome"},
	)

	modelRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_model_requests_total",
			Help: "Language model requests, by round and status",
		},
		[]string{"round", "status"},
	)

	modelLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_model_request_duration_seconds",
			Help:    "Language model request latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"round"},
	)

	toolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_tool_calls_total",
			Help: "Tool calls executed on behalf of the model",
		},
		[]string{"tool", "success"},
	)

	leadEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_lead_events_total",
			Help: "Lead domain events handed to the broker",
		},
		[]string{"event", "status"},
	)
)

func RecordChatTurn(outcome string) {
	chatTurns.WithLabelValues(outcome).Inc()
}

func RecordModelRequest(round, status string, seconds float64) {
	modelRequests.WithLabelValues(round, status).Inc()
	modelLatency.WithLabelValues(round).Observe(seconds)
}

func RecordToolCall(tool string, success bool) {
	s := "false"
	if success {
		s = "true"
	}
	toolCalls.WithLabelValues(tool, s).Inc()
}

func RecordLeadEvent(event, status string) {
	leadEvents.WithLabelValues(event, status).Inc()
}

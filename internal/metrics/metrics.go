package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AI gateway outcomes.
const (
	OutcomeAI       = "ai"
	OutcomeFallback = "fallback"
	OutcomeCache    = "cache"
)

// LLM call outcomes in the AI microservice.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clearlabel_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clearlabel_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	AIGatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clearlabel_ai_gateway_requests_total",
			Help: "AI gateway calls by operation and outcome (ai, fallback, cache)",
		},
		[]string{"operation", "outcome"},
	)

	ReportsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clearlabel_reports_generated_total",
			Help: "Total number of transparency reports generated",
		},
	)

	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clearlabel_llm_requests_total",
			Help: "Language model calls made by the AI service by purpose and outcome",
		},
		[]string{"purpose", "outcome"},
	)
)

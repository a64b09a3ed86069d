package generation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safepath_ai_requests_total",
			Help: "Total number of requests to the AI model server.",
		},
		[]string{"model", "stage", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "safepath_ai_request_duration_seconds",
			Help:    "Histogram of AI model request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model", "stage"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "safepath_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"model", "stage"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "safepath_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"model", "stage"},
	)
	generationFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "safepath_generation_fallbacks_total",
			Help: "Number of times the default branching slide set was used instead of model output.",
		},
	)
)

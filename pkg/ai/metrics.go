package ai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mockview",
		Subsystem: "ai",
		Name:      "generation_duration_seconds",
		Help:      "Duration of generative-text requests",
	}, []string{"provider", "model", "purpose"})

	generationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mockview",
		Subsystem: "ai",
		Name:      "generation_failures_total",
		Help:      "Number of failed generative-text requests",
	}, []string{"provider", "model", "purpose"})
)

// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CascadeEngineRuns counts decode-engine executions by outcome
	// (hit, miss, error).
	CascadeEngineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idscan_cascade_engine_runs_total",
		Help: "Decode engine executions by engine and outcome",
	}, []string{"engine", "outcome"})

	// ProviderAttempts counts vision/OCR provider attempts by outcome
	// (accepted, empty, error, timeout).
	ProviderAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idscan_provider_attempts_total",
		Help: "Vision and OCR provider attempts by provider and outcome",
	}, []string{"provider", "outcome"})

	// CacheLookups counts recognition-cache lookups by result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idscan_cache_lookups_total",
		Help: "Recognition cache lookups by result (hit, miss)",
	}, []string{"result"})

	// Recognitions counts finished pipeline runs by terminal outcome.
	Recognitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idscan_recognitions_total",
		Help: "Finished recognition runs by terminal outcome",
	}, []string{"outcome"})
)

package sparsegrid

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// nodesTotal counts nodes created by grids, by rule
	nodesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sparsegrid_nodes_total",
		Help: "Total nodes added to sparse grids by rule",
	}, []string{"rule"})

	// passesTotal counts refinement passes by strategy and outcome
	passesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sparsegrid_refinement_passes_total",
		Help: "Total refinement passes by strategy and outcome",
	}, []string{"strategy", "outcome"})

	// candidatesTotal counts candidates proposed by refinement strategies
	candidatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sparsegrid_candidates_total",
		Help: "Total refinement candidates proposed, before de-duplication against the grid",
	})

	// evaluateSeconds tracks batch evaluation latency
	evaluateSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sparsegrid_evaluate_seconds",
		Help:    "Batch evaluation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us to ~2.6s
	}, []string{"method"})
)

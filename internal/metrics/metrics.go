// Package metrics holds the gate's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RoutingDecisions counts route() outcomes by domain and result.
	RoutingDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "powergate_routing_decisions_total",
		Help: "Routing decisions by domain and outcome",
	}, []string{"domain", "outcome"})

	// CacheHits counts decision-cache hits and misses.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "powergate_decision_cache_total",
		Help: "Decision cache lookups by result",
	}, []string{"result"})

	// StarsCreated counts power stars by risk level.
	StarsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "powergate_stars_created_total",
		Help: "Power stars created by risk level",
	}, []string{"risk"})

	// StarOutcomes counts terminal star events.
	StarOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "powergate_star_outcomes_total",
		Help: "Terminal star outcomes (consumed, expired, revoked, denied)",
	}, []string{"outcome"})

	// ChallengeResults counts challenge completions by type and result.
	ChallengeResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "powergate_challenge_results_total",
		Help: "Challenge verification attempts by type and result",
	}, []string{"type", "result"})

	// ShadowLogFailures counts failed shadow-log appends. Any nonzero
	// value means sensitive operations were aborted unaudited-or-blocked.
	ShadowLogFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "powergate_shadow_log_failures_total",
		Help: "Failed shadow log writes",
	})

	// ActiveStars tracks stars currently pending or verified.
	ActiveStars = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "powergate_active_stars",
		Help: "Stars currently pending or verified",
	})

	// RouteDuration observes end-to-end gate authorization latency.
	RouteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "powergate_route_duration_seconds",
		Help:    "Latency of gate authorization decisions",
		Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025},
	})
)

// metrics/metrics.go - Prometheus collectors for the achievement engine
package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	achievementsUnlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamify",
			Subsystem: "achievements",
			Name:      "unlocked_total",
			Help:      "Total number of achievements unlocked.",
		},
		[]string{"rarity"},
	)

	progressUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gamify",
			Subsystem: "achievements",
			Name:      "progress_updates_total",
			Help:      "Total number of persisted progress updates.",
		},
	)

	evaluationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamify",
			Subsystem: "achievements",
			Name:      "evaluation_failures_total",
			Help:      "Criteria evaluations that were contained and treated as not met.",
		},
		[]string{"criteria_type", "reason"},
	)

	sideEffectFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamify",
			Subsystem: "achievements",
			Name:      "side_effect_failures_total",
			Help:      "Best-effort event publications and notifications that failed.",
		},
		[]string{"kind"},
	)

	simulatedTasks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gamify",
			Subsystem: "simulation",
			Name:      "tasks_total",
			Help:      "Total number of simulated task completions.",
		},
	)
)

func init() {
	Registry.MustRegister(
		achievementsUnlocked,
		progressUpdates,
		evaluationFailures,
		sideEffectFailures,
		simulatedTasks,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}

func RecordUnlock(rarity string) {
	achievementsUnlocked.WithLabelValues(rarity).Inc()
}

func RecordProgressUpdate() {
	progressUpdates.Inc()
}

func RecordEvaluationFailure(criteriaType, reason string) {
	evaluationFailures.WithLabelValues(criteriaType, reason).Inc()
}

func RecordSideEffectFailure(kind string) {
	sideEffectFailures.WithLabelValues(kind).Inc()
}

func RecordSimulatedTasks(n int) {
	simulatedTasks.Add(float64(n))
}

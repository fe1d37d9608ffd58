package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CombosCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_combos_completed_total",
			Help: "Total number of grid combinations simulated (by symbol).",
		},
		[]string{"symbol"},
	)

	CombosSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sweep_combos_skipped_total",
			Help: "Combinations skipped for insufficient data.",
		},
	)

	WorkersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sweep_workers_active",
			Help: "Current number of running sweep workers.",
		},
	)

	RowsExported = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_rows_exported_total",
			Help: "Result rows written per export format.",
		},
		[]string{"format"},
	)

	RunDuration = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sweep_run_duration_seconds",
			Help: "Wall-clock duration of the last completed run (by symbol).",
		},
		[]string{"symbol"},
	)
)

func init() {
	prometheus.MustRegister(CombosCompleted, CombosSkipped, WorkersActive, RowsExported, RunDuration)
}

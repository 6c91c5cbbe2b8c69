package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recomputationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routeopt_monitor_recomputations_total",
		Help: "Total number of route recomputations run.",
	})
	updatesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routeopt_monitor_updates_published_total",
		Help: "Total number of route updates that cleared the significance threshold.",
	})
	updatesDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routeopt_monitor_updates_discarded_total",
		Help: "Total number of recomputed routes discarded for insignificant improvement.",
	})
	cyclesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routeopt_monitor_cycles_skipped_total",
		Help: "Total number of cycles skipped (degenerate batch or transient fetch failure).",
	})
	cyclesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routeopt_monitor_cycles_failed_total",
		Help: "Total number of recomputation cycles that failed.",
	})
	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "routeopt_monitor_cycle_duration_seconds",
		Help:    "Duration of a full recomputation cycle.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0},
	})
)

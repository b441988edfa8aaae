package penknot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	historyRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "penknot_history_actions_recorded_total",
		Help: "History actions recorded, by action kind",
	}, []string{"kind"})

	historyApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "penknot_history_applied_total",
		Help: "Undo and redo steps applied, by direction and action kind",
	}, []string{"direction", "kind"})

	historyBoundary = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "penknot_history_boundary_total",
		Help: "Undo or redo requests that hit the end of the history",
	}, []string{"direction"})

	intentsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "penknot_intents_rejected_total",
		Help: "Edit intents rejected, by operation",
	}, []string{"op"})

	curvesLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "penknot_curves_live",
		Help: "Curves currently held across all editors",
	})
)

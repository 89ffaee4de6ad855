package messages

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesLoadedGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ejector_exit_messages_loaded",
		Help: "Number of verified pre-signed exit messages currently held in memory.",
	})
	messagesInvalidGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ejector_exit_messages_invalid",
		Help: "Number of source entries rejected during the last reconciliation.",
	})
	reconcileRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ejector_message_reconcile_runs_total",
		Help: "Count of message store reconciliation runs by result.",
	}, []string{"result"})
)

package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobCyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ejector_job_cycles_total",
		Help: "Count of completed job cycles by result.",
	}, []string{"result"})
	eventsFetchedGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ejector_exit_request_events_fetched",
		Help: "Number of exit request events in the last fetched block range.",
	})
	resumeCursorGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ejector_resume_cursor_position",
		Help: "Position of the resume cursor in the ordered event list, -1 when nothing is processed.",
	})
	exitsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ejector_voluntary_exits_submitted_total",
		Help: "Count of pre-signed voluntary exits accepted by the consensus layer.",
	})
	eventsForwardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ejector_exit_requests_forwarded_total",
		Help: "Count of exit request events delivered to the webhook.",
	})
	missingMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ejector_missing_exit_messages_total",
		Help: "Count of exit requests with no pre-signed message in the store.",
	})
	dispatchFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ejector_dispatch_failures_total",
		Help: "Count of per-validator processing failures, isolated from the rest of the batch.",
	})
)

// MetricsSink receives the aggregated accumulators of one finished cycle.
// Stages never touch shared counters mid-pipeline; everything lands here
// once at the end.
type MetricsSink interface {
	ObserveCycle(report *CycleReport)
}

// PrometheusSink publishes cycle reports as prometheus metrics.
type PrometheusSink struct{}

// ObserveCycle records the cycle's outcome gauges and counters.
func (*PrometheusSink) ObserveCycle(report *CycleReport) {
	eventsFetchedGauge.Set(float64(report.Events))
	resumeCursorGauge.Set(float64(report.Cursor))
	if report.Failures > 0 {
		jobCyclesTotal.WithLabelValues("partial").Inc()
		return
	}
	jobCyclesTotal.WithLabelValues("ok").Inc()
}

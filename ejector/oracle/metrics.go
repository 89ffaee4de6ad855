package oracle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	exitRequestsVerifiedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ejector_exit_requests_verified_total",
		Help: "Count of exit request event verifications by outcome.",
	}, []string{"outcome"})
	reportCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ejector_oracle_report_cache_hits_total",
		Help: "Count of decoded oracle reports served from cache.",
	})
	signerCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ejector_oracle_signer_cache_hits_total",
		Help: "Count of recovered report signers served from cache.",
	})
	lastRequestedValidatorIndexGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ejector_last_requested_validator_index",
		Help: "Highest validator index the staking module has requested an exit for, -1 when none.",
	}, []string{"module", "operator"})
)
